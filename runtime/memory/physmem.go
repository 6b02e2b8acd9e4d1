package memory

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/viant/strider/model/mm"
)

// ErrOutOfFrames is returned when the frame allocator is exhausted.
var ErrOutOfFrames = errors.New("out of physical frames")

// FrameAllocator hands out physical frame numbers.
type FrameAllocator interface {
	Alloc() (mm.PhysPageNum, bool)
	Dealloc(ppn mm.PhysPageNum)
	Free() uint64
}

// PhysMemory is the simulated RAM behind every frame of the allocator.
type PhysMemory struct {
	base      mm.PhysPageNum
	frames    uint64
	data      []byte
	allocator FrameAllocator
}

// NewPhysMemory creates frames pages of RAM starting at base.
func NewPhysMemory(base mm.PhysPageNum, frames uint64, allocator FrameAllocator) *PhysMemory {
	return &PhysMemory{
		base:      base,
		frames:    frames,
		data:      make([]byte, frames*mm.PageSize),
		allocator: allocator,
	}
}

// Alloc takes a zeroed frame from the allocator.
func (p *PhysMemory) Alloc() (mm.PhysPageNum, bool) {
	ppn, ok := p.allocator.Alloc()
	if !ok {
		return 0, false
	}
	clear(p.Page(ppn))
	return ppn, true
}

// Dealloc hands ppn back to the allocator.
func (p *PhysMemory) Dealloc(ppn mm.PhysPageNum) {
	p.allocator.Dealloc(ppn)
}

// FreeFrames returns the number of frames the allocator can still hand out.
func (p *PhysMemory) FreeFrames() uint64 {
	return p.allocator.Free()
}

// Page returns the bytes of frame ppn.
func (p *PhysMemory) Page(ppn mm.PhysPageNum) []byte {
	if ppn < p.base || uint64(ppn-p.base) >= p.frames {
		panic(fmt.Sprintf("memory: frame %#x outside physical memory", uint64(ppn)))
	}
	offset := uint64(ppn-p.base) * mm.PageSize
	return p.data[offset : offset+mm.PageSize : offset+mm.PageSize]
}

func (p *PhysMemory) pte(table mm.PhysPageNum, idx int) mm.PageTableEntry {
	return mm.PageTableEntry(binary.LittleEndian.Uint64(p.Page(table)[idx*8:]))
}

func (p *PhysMemory) setPTE(table mm.PhysPageNum, idx int, pte mm.PageTableEntry) {
	binary.LittleEndian.PutUint64(p.Page(table)[idx*8:], uint64(pte))
}
