package task

import (
	"errors"
	"fmt"

	"github.com/viant/strider/internal/exclusive"
	"github.com/viant/strider/internal/idgen"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/model/mm"
	"github.com/viant/strider/policy"
	"github.com/viant/strider/runtime/memory"
)

// MinPriority is the lowest priority a task may run with.
const MinPriority = 2

var (
	// ErrInvalidPriority is returned for priorities below MinPriority.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrBrkUnderflow is returned when sbrk would move the break below the heap bottom.
	ErrBrkUnderflow = errors.New("program break below heap bottom")
)

// Layout places the user stack; the heap starts right above it.
type Layout struct {
	StackBase uint64 `yaml:"stackBase" json:"stackBase"`
	StackSize uint64 `yaml:"stackSize" json:"stackSize"`
}

// DefaultLayout returns the default user layout.
func DefaultLayout() Layout {
	return Layout{StackBase: 0x1000, StackSize: 0x2000}
}

// Validate checks that the stack is page aligned and inside user space.
func (l Layout) Validate() error {
	if !mm.VirtAddr(l.StackBase).Aligned() || !mm.VirtAddr(l.StackSize).Aligned() || l.StackSize == 0 {
		return fmt.Errorf("stack %#x+%#x must be page aligned and non empty", l.StackBase, l.StackSize)
	}
	if _, _, ok := mm.PageRange(l.StackBase, l.StackSize); !ok {
		return fmt.Errorf("stack %#x+%#x outside user space", l.StackBase, l.StackSize)
	}
	return nil
}

// StackTop is the first address above the stack.
func (l Layout) StackTop() uint64 {
	return l.StackBase + l.StackSize
}

// Inner is the mutable part of a control block.
type Inner struct {
	Status       abi.TaskStatus
	Stride       int64
	Priority     int64
	SyscallTimes [abi.MaxSyscallNum]uint32
	// StartTime is latched in ms the first time the task runs.
	StartTime  uint64
	Started    bool
	MemorySet  *memory.MemorySet
	HeapBottom uint64
	ProgramBrk uint64
	ExitCode   int32
	// Fault is set when the task was killed.
	Fault string
}

// ControlBlock is the kernel's view of one task.
type ControlBlock struct {
	ID      string
	PID     uint64
	Name    string
	Program Program
	Policy  *policy.Policy
	inner   *exclusive.Cell[Inner]
}

// New creates a task in the UnInit state with a mapped stack and an empty heap.
func New(pid uint64, name string, program Program, mem *memory.PhysMemory, layout Layout, priority int64) (*ControlBlock, error) {
	if priority < MinPriority {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	set, err := memory.NewBare(mem)
	if err != nil {
		return nil, err
	}
	perm := mm.PermRead | mm.PermWrite | mm.PermUser
	stackTop := mm.VirtAddr(layout.StackTop())
	if err = set.Insert(memory.NewMapArea(mm.VirtAddr(layout.StackBase), stackTop, perm, memory.AreaStack)); err != nil {
		set.Recycle()
		return nil, fmt.Errorf("task %v stack: %w", name, err)
	}
	_ = set.Insert(memory.NewMapArea(stackTop, stackTop, perm, memory.AreaHeap))
	return &ControlBlock{
		ID:      idgen.New(),
		PID:     pid,
		Name:    name,
		Program: program,
		inner: exclusive.New(fmt.Sprintf("task %d", pid), Inner{
			Status:     abi.StatusUnInit,
			Priority:   priority,
			MemorySet:  set,
			HeapBottom: layout.StackTop(),
			ProgramBrk: layout.StackTop(),
		}),
	}, nil
}

// Inner grants exclusive access to the mutable state until release is called.
func (c *ControlBlock) Inner() (*Inner, func()) {
	return c.inner.Borrow()
}

// With runs fn with exclusive access to the mutable state.
func (c *ControlBlock) With(fn func(inner *Inner)) {
	c.inner.With(fn)
}

func (c *ControlBlock) Status() abi.TaskStatus {
	return exclusive.Get(c.inner, func(inner *Inner) abi.TaskStatus { return inner.Status })
}

// SetStatus moves the task to status and returns the previous one.
func (c *ControlBlock) SetStatus(status abi.TaskStatus) abi.TaskStatus {
	return exclusive.Get(c.inner, func(inner *Inner) abi.TaskStatus {
		prev := inner.Status
		inner.Status = status
		return prev
	})
}

func (c *ControlBlock) Stride() int64 {
	return exclusive.Get(c.inner, func(inner *Inner) int64 { return inner.Stride })
}

func (c *ControlBlock) Priority() int64 {
	return exclusive.Get(c.inner, func(inner *Inner) int64 { return inner.Priority })
}

// SetPriority changes the priority; values below MinPriority are rejected.
func (c *ControlBlock) SetPriority(priority int64) error {
	if priority < MinPriority {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}
	c.With(func(inner *Inner) { inner.Priority = priority })
	return nil
}

// ExitCode returns the recorded exit code.
func (c *ControlBlock) ExitCode() int32 {
	return exclusive.Get(c.inner, func(inner *Inner) int32 { return inner.ExitCode })
}

// Token identifies the task's page table.
func (c *ControlBlock) Token() uint64 {
	return exclusive.Get(c.inner, func(inner *Inner) uint64 { return inner.MemorySet.Token() })
}

// MemorySet returns the task's address space for reads; changes go through
// MapFramed, UnmapFramed and ChangeProgramBrk.
func (c *ControlBlock) MemorySet() *memory.MemorySet {
	return exclusive.Get(c.inner, func(inner *Inner) *memory.MemorySet { return inner.MemorySet })
}

// MapFramed maps the pages [first, last) with perm when none of them is mapped yet.
func (c *ControlBlock) MapFramed(first, last mm.VirtPageNum, perm mm.MapPermission) error {
	var err error
	c.With(func(inner *Inner) {
		if !inner.MemorySet.RangeFree(first, last) {
			err = memory.ErrOverlap
			return
		}
		err = inner.MemorySet.InsertFramedArea(first.Addr(), last.Addr(), perm)
	})
	return err
}

// UnmapFramed removes the pages [first, last) of one mmap region.
func (c *ControlBlock) UnmapFramed(first, last mm.VirtPageNum) bool {
	return exclusive.Get(c.inner, func(inner *Inner) bool {
		return inner.MemorySet.RemoveFramedArea(first.Addr(), last.Addr())
	})
}

// RecordSyscall counts one invocation of id; ids outside the table are not counted.
func (c *ControlBlock) RecordSyscall(id uint64) {
	if id >= abi.MaxSyscallNum {
		return
	}
	c.With(func(inner *Inner) { inner.SyscallTimes[id]++ })
}

// MarkRunning sets Running and latches the start time on the first run.
func (c *ControlBlock) MarkRunning(nowMs uint64) abi.TaskStatus {
	return exclusive.Get(c.inner, func(inner *Inner) abi.TaskStatus {
		prev := inner.Status
		inner.Status = abi.StatusRunning
		if !inner.Started {
			inner.Started = true
			inner.StartTime = nowMs
		}
		return prev
	})
}

// Snapshot copies the introspection fields at nowMs.
func (c *ControlBlock) Snapshot(nowMs uint64) abi.TaskInfo {
	return exclusive.Get(c.inner, func(inner *Inner) abi.TaskInfo {
		info := abi.TaskInfo{Status: inner.Status, SyscallTimes: inner.SyscallTimes}
		if inner.Started && nowMs > inner.StartTime {
			info.Time = nowMs - inner.StartTime
		}
		return info
	})
}

// ChangeProgramBrk moves the break by size bytes and returns the old break.
func (c *ControlBlock) ChangeProgramBrk(size int32) (uint64, error) {
	var (
		oldBrk uint64
		err    error
	)
	c.With(func(inner *Inner) {
		oldBrk = inner.ProgramBrk
		newBrk := int64(inner.ProgramBrk) + int64(size)
		if newBrk < int64(inner.HeapBottom) {
			err = ErrBrkUnderflow
			return
		}
		if _, _, ok := mm.PageRange(uint64(newBrk), 0); !ok {
			err = fmt.Errorf("program break %#x outside user space", newBrk)
			return
		}
		heapBottom := mm.VirtAddr(inner.HeapBottom)
		if size < 0 {
			if !inner.MemorySet.ShrinkTo(heapBottom, mm.VirtAddr(newBrk)) {
				err = fmt.Errorf("no heap region at %#x", inner.HeapBottom)
				return
			}
		} else if err = inner.MemorySet.AppendTo(heapBottom, mm.VirtAddr(newBrk)); err != nil {
			return
		}
		inner.ProgramBrk = uint64(newBrk)
	})
	return oldBrk, err
}

// Exit records the exit code, marks the task Exited and releases its memory.
// Only the first call takes effect.
func (c *ControlBlock) Exit(code int32, fault string) {
	c.With(func(inner *Inner) {
		if inner.Status == abi.StatusExited {
			return
		}
		inner.Status = abi.StatusExited
		inner.ExitCode = code
		inner.Fault = fault
		inner.MemorySet.Recycle()
	})
}
