package types

import (
	"errors"
	"fmt"
)

// FaultKind classifies a fatal task condition.
type FaultKind int

const (
	// FaultPage is a user access to an unmapped page or one lacking the needed permission.
	FaultPage FaultKind = iota + 1
	// FaultIllegalSyscall is a call to an unsupported or disallowed syscall id.
	FaultIllegalSyscall
	// FaultOutOfFrames is a frame allocation failure while growing an address space.
	FaultOutOfFrames
)

// ExitCode returns the exit code recorded for a task killed by the fault kind.
func (k FaultKind) ExitCode() int32 {
	switch k {
	case FaultPage:
		return -2
	case FaultIllegalSyscall:
		return -3
	case FaultOutOfFrames:
		return -4
	}
	return -1
}

func (k FaultKind) String() string {
	switch k {
	case FaultPage:
		return "page fault"
	case FaultIllegalSyscall:
		return "illegal syscall"
	case FaultOutOfFrames:
		return "out of frames"
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Fault aborts the current task. It is raised with panic from deep inside
// address translation and recovered by the processor.
type Fault struct {
	Kind    FaultKind
	Addr    uint64
	Syscall uint64
	Detail  string
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultPage:
		return fmt.Sprintf("%v at %#x: %s", f.Kind, f.Addr, f.Detail)
	case FaultIllegalSyscall:
		return fmt.Sprintf("%v %d: %s", f.Kind, f.Syscall, f.Detail)
	}
	return fmt.Sprintf("%v: %s", f.Kind, f.Detail)
}

// NewPageFault creates a page fault at addr.
func NewPageFault(addr uint64, detail string) *Fault {
	return &Fault{Kind: FaultPage, Addr: addr, Detail: detail}
}

// NewIllegalSyscallFault creates a fault for syscall id.
func NewIllegalSyscallFault(id uint64, detail string) *Fault {
	return &Fault{Kind: FaultIllegalSyscall, Syscall: id, Detail: detail}
}

// NewOutOfFramesFault creates a frame exhaustion fault.
func NewOutOfFramesFault(detail string) *Fault {
	return &Fault{Kind: FaultOutOfFrames, Detail: detail}
}

// AsFault unwraps err into a Fault.
func AsFault(err error) (*Fault, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}

// RecoveredFault converts a recovered panic value into a Fault. Any other
// value is re-panicked.
func RecoveredFault(r any) *Fault {
	switch actual := r.(type) {
	case *Fault:
		return actual
	case error:
		if fault, ok := AsFault(actual); ok {
			return fault
		}
	}
	panic(r)
}
