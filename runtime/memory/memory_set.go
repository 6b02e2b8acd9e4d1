package memory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/strider/model/mm"
)

var (
	// ErrOverlap is returned when a new mapping would cover an already mapped page.
	ErrOverlap = errors.New("range overlaps an existing mapping")
	// ErrRecycled is returned when a released address space is asked to map.
	ErrRecycled = errors.New("address space already recycled")
)

// MemorySet is the address space of one task: a page table plus the framed
// regions installed in it.
type MemorySet struct {
	mem       *PhysMemory
	pageTable *PageTable
	areas     []*MapArea
	recycled  bool
}

// NewBare creates an address space with no regions.
func NewBare(mem *PhysMemory) (*MemorySet, error) {
	pt, err := NewPageTable(mem)
	if err != nil {
		return nil, err
	}
	return &MemorySet{mem: mem, pageTable: pt}, nil
}

// Token identifies the page table for cross-space copies.
func (m *MemorySet) Token() uint64 {
	return m.pageTable.Token()
}

// Memory returns the physical memory backing the space.
func (m *MemorySet) Memory() *PhysMemory {
	return m.mem
}

// Translate looks up vpn without allocating. A recycled space maps nothing.
func (m *MemorySet) Translate(vpn mm.VirtPageNum) (mm.PageTableEntry, bool) {
	if m.recycled {
		return 0, false
	}
	return m.pageTable.Translate(vpn)
}

// Recycled reports whether the space released its frames.
func (m *MemorySet) Recycled() bool {
	return m.recycled
}

// RangeFree reports whether no page of [start, end) is validly mapped.
func (m *MemorySet) RangeFree(start, end mm.VirtPageNum) bool {
	for vpn := start; vpn < end; vpn++ {
		if _, ok := m.Translate(vpn); ok {
			return false
		}
	}
	return true
}

// Insert backs every page of area with a fresh frame and records it.
func (m *MemorySet) Insert(area *MapArea) error {
	if m.recycled {
		return ErrRecycled
	}
	for _, existing := range m.areas {
		if existing.Overlaps(area.Start, area.End) {
			return fmt.Errorf("%v %#x..%#x: %w", area.Kind, uint64(area.Start.Addr()), uint64(area.End.Addr()), ErrOverlap)
		}
	}
	if err := area.mapRange(m.pageTable, area.Start, area.End); err != nil {
		return err
	}
	m.areas = append(m.areas, area)
	return nil
}

// InsertFramedArea maps [startVA, endVA) as a user mmap region.
func (m *MemorySet) InsertFramedArea(startVA, endVA mm.VirtAddr, perm mm.MapPermission) error {
	return m.Insert(NewMapArea(startVA, endVA, perm, AreaMmap))
}

// RemoveFramedArea unmaps [startVA, endVA) when the whole range belongs to one
// mmap region. A region is removed, trimmed or split depending on where the
// range falls. It returns false and leaves the space untouched otherwise.
func (m *MemorySet) RemoveFramedArea(startVA, endVA mm.VirtAddr) bool {
	start, end := startVA.Floor(), endVA.Ceil()
	if start >= end || m.recycled {
		return false
	}
	for i, area := range m.areas {
		if area.Kind != AreaMmap || !area.Contains(start, end) {
			continue
		}
		area.unmapRange(m.pageTable, start, end)
		switch {
		case start == area.Start && end == area.End:
			m.areas = append(m.areas[:i], m.areas[i+1:]...)
		case start == area.Start:
			area.Start = end
		case end == area.End:
			area.End = start
		default:
			tail := area.split(end)
			area.End = start
			m.areas = append(m.areas[:i+1], append([]*MapArea{tail}, m.areas[i+1:]...)...)
		}
		return true
	}
	return false
}

func (m *MemorySet) findArea(kind AreaKind, start mm.VirtPageNum) *MapArea {
	for _, area := range m.areas {
		if area.Kind == kind && area.Start == start {
			return area
		}
	}
	return nil
}

// AppendTo grows the heap region starting at start so that it ends at newEnd.
func (m *MemorySet) AppendTo(start, newEnd mm.VirtAddr) error {
	if m.recycled {
		return ErrRecycled
	}
	area := m.findArea(AreaHeap, start.Floor())
	if area == nil {
		return fmt.Errorf("no heap region at %#x", uint64(start))
	}
	end := newEnd.Ceil()
	if end <= area.End {
		return nil
	}
	if !m.RangeFree(area.End, end) {
		return ErrOverlap
	}
	if err := area.mapRange(m.pageTable, area.End, end); err != nil {
		return err
	}
	area.End = end
	return nil
}

// ShrinkTo releases the heap pages above newEnd.
func (m *MemorySet) ShrinkTo(start, newEnd mm.VirtAddr) bool {
	area := m.findArea(AreaHeap, start.Floor())
	if area == nil {
		return false
	}
	end := newEnd.Ceil()
	if end < area.Start {
		return false
	}
	if end < area.End {
		area.unmapRange(m.pageTable, end, area.End)
		area.End = end
	}
	return true
}

// Areas returns a description of every region ordered by start address.
func (m *MemorySet) Areas() []AreaInfo {
	ret := make([]AreaInfo, 0, len(m.areas))
	for _, area := range m.areas {
		ret = append(ret, AreaInfo{
			Start:  area.Start.Addr(),
			End:    area.End.Addr(),
			Perm:   area.Perm.String(),
			Kind:   area.Kind.String(),
			Mapped: len(area.frames),
		})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Start < ret[j].Start })
	return ret
}

// MappedPages returns the number of data pages backed by frames.
func (m *MemorySet) MappedPages() int {
	count := 0
	for _, area := range m.areas {
		count += len(area.frames)
	}
	return count
}

// Recycle returns every frame owned by the space, page tables included.
// The space must not be used afterwards.
func (m *MemorySet) Recycle() {
	if m.recycled {
		return
	}
	m.recycled = true
	for _, area := range m.areas {
		area.unmapRange(m.pageTable, area.Start, area.End)
	}
	m.areas = nil
	m.pageTable.Release()
}
