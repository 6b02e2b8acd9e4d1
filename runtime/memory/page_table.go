package memory

import (
	"fmt"

	"github.com/viant/strider/model/mm"
)

const (
	sv39Mode  = uint64(8) << 60
	tokenMask = (uint64(1) << mm.PPNBits) - 1
)

// PageTable is a three level Sv39 table stored in physical frames.
type PageTable struct {
	mem    *PhysMemory
	root   mm.PhysPageNum
	frames []mm.PhysPageNum
}

// NewPageTable allocates an empty root table.
func NewPageTable(mem *PhysMemory) (*PageTable, error) {
	root, ok := mem.Alloc()
	if !ok {
		return nil, fmt.Errorf("page table root: %w", ErrOutOfFrames)
	}
	return &PageTable{mem: mem, root: root, frames: []mm.PhysPageNum{root}}, nil
}

// FromToken returns a read-only view of the table identified by token.
func FromToken(mem *PhysMemory, token uint64) *PageTable {
	return &PageTable{mem: mem, root: mm.PhysPageNum(token & tokenMask)}
}

// Token encodes the paging mode and root frame.
func (t *PageTable) Token() uint64 {
	return sv39Mode | uint64(t.root)
}

// lookup walks to the leaf slot of vpn without allocating.
func (t *PageTable) lookup(vpn mm.VirtPageNum) (mm.PhysPageNum, int, bool) {
	table := t.root
	idxs := vpn.Indexes()
	for level := 0; level < mm.Levels-1; level++ {
		pte := t.mem.pte(table, idxs[level])
		if !pte.IsValid() {
			return 0, 0, false
		}
		table = pte.PPN()
	}
	return table, idxs[mm.Levels-1], true
}

// ensure walks to the leaf slot of vpn, allocating intermediate tables.
func (t *PageTable) ensure(vpn mm.VirtPageNum) (mm.PhysPageNum, int, error) {
	table := t.root
	idxs := vpn.Indexes()
	for level := 0; level < mm.Levels-1; level++ {
		pte := t.mem.pte(table, idxs[level])
		if !pte.IsValid() {
			frame, ok := t.mem.Alloc()
			if !ok {
				return 0, 0, ErrOutOfFrames
			}
			t.frames = append(t.frames, frame)
			pte = mm.NewPageTableEntry(frame, mm.PTEValid)
			t.mem.setPTE(table, idxs[level], pte)
		}
		table = pte.PPN()
	}
	return table, idxs[mm.Levels-1], nil
}

// Map installs vpn -> ppn. Mapping an already valid page panics.
func (t *PageTable) Map(vpn mm.VirtPageNum, ppn mm.PhysPageNum, flags mm.PTEFlags) error {
	table, idx, err := t.ensure(vpn)
	if err != nil {
		return err
	}
	if t.mem.pte(table, idx).IsValid() {
		panic(fmt.Sprintf("page table: vpn %#x is mapped before mapping", uint64(vpn)))
	}
	t.mem.setPTE(table, idx, mm.NewPageTableEntry(ppn, flags|mm.PTEValid))
	return nil
}

// Unmap clears the entry of vpn. Unmapping an invalid page panics.
func (t *PageTable) Unmap(vpn mm.VirtPageNum) {
	table, idx, ok := t.lookup(vpn)
	if !ok || !t.mem.pte(table, idx).IsValid() {
		panic(fmt.Sprintf("page table: vpn %#x is invalid before unmapping", uint64(vpn)))
	}
	t.mem.setPTE(table, idx, 0)
}

// Translate returns the valid leaf entry of vpn.
func (t *PageTable) Translate(vpn mm.VirtPageNum) (mm.PageTableEntry, bool) {
	table, idx, ok := t.lookup(vpn)
	if !ok {
		return 0, false
	}
	pte := t.mem.pte(table, idx)
	if !pte.IsValid() {
		return 0, false
	}
	return pte, true
}

// TranslateVA resolves a virtual address to a physical one.
func (t *PageTable) TranslateVA(va mm.VirtAddr) (mm.PhysAddr, bool) {
	pte, ok := t.Translate(va.Floor())
	if !ok {
		return 0, false
	}
	return pte.PPN().Addr() + mm.PhysAddr(va.PageOffset()), true
}

// Release frees the frames holding the table itself.
func (t *PageTable) Release() {
	for _, frame := range t.frames {
		t.mem.Dealloc(frame)
	}
	t.frames = nil
}
