package memory

import (
	"encoding/binary"
	"fmt"

	"github.com/viant/strider/model/mm"
	"github.com/viant/strider/model/types"
)

// User access requirements for cross-space copies.
const (
	WriteAccess = mm.PTEUser | mm.PTEWrite
	ReadAccess  = mm.PTEUser | mm.PTERead
)

// TranslatedByteBuffer returns kernel views of every page touched by
// [ptr, ptr+n) in the space identified by token. Each page must be valid and
// carry want; otherwise a page fault is raised.
func TranslatedByteBuffer(mem *PhysMemory, token uint64, ptr, n uint64, want mm.PTEFlags) [][]byte {
	end := ptr + n
	if end < ptr || end > mm.UserSpaceEnd {
		panic(types.NewPageFault(ptr, fmt.Sprintf("range of %d bytes out of user space", n)))
	}
	pt := FromToken(mem, token)
	var ret [][]byte
	for start := ptr; start < end; {
		va := mm.VirtAddr(start)
		pte, ok := pt.Translate(va.Floor())
		if !ok {
			panic(types.NewPageFault(start, "unmapped"))
		}
		if !pte.Permits(want) {
			panic(types.NewPageFault(start, deniedAccess(pte, want)))
		}
		pageEnd := uint64((va.Floor() + 1).Addr())
		if pageEnd > end {
			pageEnd = end
		}
		page := mem.Page(pte.PPN())
		ret = append(ret, page[va.PageOffset():va.PageOffset()+(pageEnd-start)])
		start = pageEnd
	}
	return ret
}

func deniedAccess(pte mm.PageTableEntry, want mm.PTEFlags) string {
	switch {
	case want&mm.PTEUser != 0 && !pte.User():
		return "not user accessible"
	case want&mm.PTEWrite != 0 && !pte.Writable():
		return "not writable"
	case want&mm.PTERead != 0 && !pte.Readable():
		return "not readable"
	}
	return "permission denied"
}

// CopyToUser writes src at dst in the target space, page by page.
func CopyToUser(mem *PhysMemory, token uint64, dst uint64, src []byte) int {
	copied := 0
	for _, chunk := range TranslatedByteBuffer(mem, token, dst, uint64(len(src)), WriteAccess) {
		copied += copy(chunk, src[copied:])
	}
	return copied
}

// CopyFromUser reads len(dst) bytes at src in the target space.
func CopyFromUser(mem *PhysMemory, token uint64, src uint64, dst []byte) int {
	copied := 0
	for _, chunk := range TranslatedByteBuffer(mem, token, src, uint64(len(dst)), ReadAccess) {
		copied += copy(dst[copied:], chunk)
	}
	return copied
}

// StoreWord writes a little-endian machine word at va.
func StoreWord(mem *PhysMemory, token uint64, va uint64, value uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	CopyToUser(mem, token, va, buf[:])
}

// LoadWord reads a little-endian machine word at va.
func LoadWord(mem *PhysMemory, token uint64, va uint64) uint64 {
	var buf [8]byte
	CopyFromUser(mem, token, va, buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}
