package mm

import "strings"

// PTEFlags are the low eight bits of a page table entry.
type PTEFlags uint8

const (
	PTEValid PTEFlags = 1 << iota
	PTERead
	PTEWrite
	PTEExec
	PTEUser
	PTEGlobal
	PTEAccessed
	PTEDirty
)

// MapPermission is the permission set of a mapped region. Bits line up with PTEFlags.
type MapPermission uint8

const (
	PermRead  = MapPermission(PTERead)
	PermWrite = MapPermission(PTEWrite)
	PermExec  = MapPermission(PTEExec)
	PermUser  = MapPermission(PTEUser)
)

// portMask covers the R/W/X bits a user may request through mmap.
const portMask = 0x7

// PermissionFromPort decodes an mmap port (bit0 R, bit1 W, bit2 X) into a user
// accessible permission. ok is false for empty or out-of-range ports.
func PermissionFromPort(port uint64) (MapPermission, bool) {
	if port&^portMask != 0 || port&portMask == 0 {
		return 0, false
	}
	return MapPermission(port<<1) | PermUser, true
}

// Flags converts the permission into PTE flags (without the valid bit).
func (p MapPermission) Flags() PTEFlags {
	return PTEFlags(p)
}

func (p MapPermission) String() string {
	var b strings.Builder
	for _, item := range []struct {
		bit  MapPermission
		char byte
	}{{PermRead, 'R'}, {PermWrite, 'W'}, {PermExec, 'X'}, {PermUser, 'U'}} {
		if p&item.bit != 0 {
			b.WriteByte(item.char)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// PageTableEntry is an Sv39 entry: PPN in bits 10..53, flags in bits 0..7.
type PageTableEntry uint64

const ppnMask = (uint64(1) << PPNBits) - 1

// NewPageTableEntry packs a frame number and flags.
func NewPageTableEntry(ppn PhysPageNum, flags PTEFlags) PageTableEntry {
	return PageTableEntry((uint64(ppn)&ppnMask)<<10 | uint64(flags))
}

func (e PageTableEntry) PPN() PhysPageNum { return PhysPageNum((uint64(e) >> 10) & ppnMask) }
func (e PageTableEntry) Flags() PTEFlags  { return PTEFlags(e) }
func (e PageTableEntry) IsValid() bool    { return e.Flags()&PTEValid != 0 }
func (e PageTableEntry) Readable() bool   { return e.Flags()&PTERead != 0 }
func (e PageTableEntry) Writable() bool   { return e.Flags()&PTEWrite != 0 }
func (e PageTableEntry) User() bool       { return e.Flags()&PTEUser != 0 }

// Permits reports whether the entry is valid and carries every bit of want.
func (e PageTableEntry) Permits(want PTEFlags) bool {
	return e.IsValid() && e.Flags()&want == want
}
