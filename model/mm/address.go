package mm

// Sv39 geometry.
const (
	PageSizeBits = 12
	PageSize     = 1 << PageSizeBits

	VABits  = 39
	PABits  = 56
	VPNBits = VABits - PageSizeBits
	PPNBits = PABits - PageSizeBits

	// Levels is the depth of the page table walk.
	Levels = 3
	// EntriesPerTable is the number of PTEs held by one page-table frame.
	EntriesPerTable = PageSize / 8

	// UserSpaceEnd bounds the lower (user) half of the Sv39 address space.
	UserSpaceEnd = uint64(1) << (VABits - 1)
)

type (
	// VirtAddr is a virtual address in some task's address space.
	VirtAddr uint64
	// PhysAddr is a simulated physical address.
	PhysAddr uint64
	// VirtPageNum is a virtual page number.
	VirtPageNum uint64
	// PhysPageNum is a physical page (frame) number.
	PhysPageNum uint64
)

// Floor returns the page containing va.
func (va VirtAddr) Floor() VirtPageNum {
	return VirtPageNum(uint64(va) / PageSize)
}

// Ceil returns the first page boundary at or above va, as a page number.
func (va VirtAddr) Ceil() VirtPageNum {
	if va == 0 {
		return 0
	}
	return VirtPageNum((uint64(va)-1)/PageSize + 1)
}

// PageOffset returns the offset of va inside its page.
func (va VirtAddr) PageOffset() uint64 {
	return uint64(va) & (PageSize - 1)
}

// Aligned reports whether va sits on a page boundary.
func (va VirtAddr) Aligned() bool {
	return va.PageOffset() == 0
}

// Addr returns the first address of the page.
func (vpn VirtPageNum) Addr() VirtAddr {
	return VirtAddr(uint64(vpn) << PageSizeBits)
}

// Indexes returns the per-level table indexes, root level first.
func (vpn VirtPageNum) Indexes() [Levels]int {
	var idx [Levels]int
	v := uint64(vpn)
	for i := Levels - 1; i >= 0; i-- {
		idx[i] = int(v & (EntriesPerTable - 1))
		v >>= 9
	}
	return idx
}

// Addr returns the first address of the frame.
func (ppn PhysPageNum) Addr() PhysAddr {
	return PhysAddr(uint64(ppn) << PageSizeBits)
}

// Floor returns the frame containing pa.
func (pa PhysAddr) Floor() PhysPageNum {
	return PhysPageNum(uint64(pa) / PageSize)
}

// PageOffset returns the offset of pa inside its frame.
func (pa PhysAddr) PageOffset() uint64 {
	return uint64(pa) & (PageSize - 1)
}

// PageRange returns the half-open page range [floor(start), ceil(start+length)).
// ok is false when the range wraps or leaves the user half of the address space.
func PageRange(start, length uint64) (first, last VirtPageNum, ok bool) {
	end := start + length
	if end < start || end > UserSpaceEnd {
		return 0, 0, false
	}
	return VirtAddr(start).Floor(), VirtAddr(end).Ceil(), true
}
