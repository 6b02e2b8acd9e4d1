package memory

import (
	"fmt"

	"github.com/viant/strider/model/mm"
)

// AreaKind tells what a region is used for.
type AreaKind int

const (
	AreaMmap AreaKind = iota
	AreaStack
	AreaHeap
)

func (k AreaKind) String() string {
	switch k {
	case AreaMmap:
		return "mmap"
	case AreaStack:
		return "stack"
	case AreaHeap:
		return "heap"
	}
	return fmt.Sprintf("area(%d)", int(k))
}

// MapArea is a framed region [Start, End) backed by one frame per page.
type MapArea struct {
	Start  mm.VirtPageNum
	End    mm.VirtPageNum
	Perm   mm.MapPermission
	Kind   AreaKind
	frames map[mm.VirtPageNum]mm.PhysPageNum
}

// NewMapArea covers every page touched by [startVA, endVA).
func NewMapArea(startVA, endVA mm.VirtAddr, perm mm.MapPermission, kind AreaKind) *MapArea {
	return &MapArea{
		Start:  startVA.Floor(),
		End:    endVA.Ceil(),
		Perm:   perm,
		Kind:   kind,
		frames: make(map[mm.VirtPageNum]mm.PhysPageNum),
	}
}

// Pages returns the number of pages covered.
func (a *MapArea) Pages() uint64 {
	return uint64(a.End - a.Start)
}

// Contains reports whether [start, end) lies inside the area.
func (a *MapArea) Contains(start, end mm.VirtPageNum) bool {
	return a.Start <= start && end <= a.End
}

// Overlaps reports whether [start, end) shares a page with the area.
func (a *MapArea) Overlaps(start, end mm.VirtPageNum) bool {
	return start < a.End && a.Start < end
}

func (a *MapArea) mapOne(pt *PageTable, vpn mm.VirtPageNum) error {
	ppn, ok := pt.mem.Alloc()
	if !ok {
		return ErrOutOfFrames
	}
	if err := pt.Map(vpn, ppn, a.Perm.Flags()); err != nil {
		pt.mem.Dealloc(ppn)
		return err
	}
	a.frames[vpn] = ppn
	return nil
}

func (a *MapArea) unmapOne(pt *PageTable, vpn mm.VirtPageNum) {
	if ppn, ok := a.frames[vpn]; ok {
		pt.Unmap(vpn)
		pt.mem.Dealloc(ppn)
		delete(a.frames, vpn)
	}
}

// mapRange backs [start, end); on failure the pages it mapped are undone.
func (a *MapArea) mapRange(pt *PageTable, start, end mm.VirtPageNum) error {
	for vpn := start; vpn < end; vpn++ {
		if err := a.mapOne(pt, vpn); err != nil {
			a.unmapRange(pt, start, vpn)
			return fmt.Errorf("map %v page %#x: %w", a.Kind, uint64(vpn), err)
		}
	}
	return nil
}

func (a *MapArea) unmapRange(pt *PageTable, start, end mm.VirtPageNum) {
	for vpn := start; vpn < end; vpn++ {
		a.unmapOne(pt, vpn)
	}
}

// split detaches [at, End) into a new area sharing the same frames.
func (a *MapArea) split(at mm.VirtPageNum) *MapArea {
	tail := &MapArea{Start: at, End: a.End, Perm: a.Perm, Kind: a.Kind, frames: make(map[mm.VirtPageNum]mm.PhysPageNum)}
	for vpn, ppn := range a.frames {
		if vpn >= at {
			tail.frames[vpn] = ppn
			delete(a.frames, vpn)
		}
	}
	a.End = at
	return tail
}

// AreaInfo describes a region for inspection.
type AreaInfo struct {
	Start  mm.VirtAddr `json:"start"`
	End    mm.VirtAddr `json:"end"`
	Perm   string      `json:"perm"`
	Kind   string      `json:"kind"`
	Pages  uint64      `json:"pages"`
	Mapped int         `json:"mapped"`
}
