package task

import (
	"time"

	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/runtime/memory"
)

// Record is the persisted view of a task.
type Record struct {
	ID           string            `json:"id" yaml:"id"`
	PID          uint64            `json:"pid" yaml:"pid"`
	Name         string            `json:"name" yaml:"name"`
	Status       string            `json:"status" yaml:"status"`
	Priority     int64             `json:"priority" yaml:"priority"`
	Stride       int64             `json:"stride" yaml:"stride"`
	StartTime    uint64            `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	ExitCode     int32             `json:"exitCode" yaml:"exitCode"`
	Fault        string            `json:"fault,omitempty" yaml:"fault,omitempty"`
	ProgramBrk   uint64            `json:"programBrk" yaml:"programBrk"`
	SyscallTimes map[string]uint32 `json:"syscallTimes,omitempty" yaml:"syscallTimes,omitempty"`
	Areas        []memory.AreaInfo `json:"areas,omitempty" yaml:"areas,omitempty"`
	Failures     []string          `json:"failures,omitempty" yaml:"failures,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt" yaml:"updatedAt"`
}

// GetID returns the record id.
func (r *Record) GetID() string { return r.ID }

// Exited reports whether the task has finished.
func (r *Record) Exited() bool { return r.Status == abi.StatusExited.String() }

// Record captures the current state of the task.
func (c *ControlBlock) Record(updatedAt time.Time) *Record {
	ret := &Record{ID: c.ID, PID: c.PID, Name: c.Name, UpdatedAt: updatedAt}
	c.With(func(inner *Inner) {
		ret.Status = inner.Status.String()
		ret.Priority = inner.Priority
		ret.Stride = inner.Stride
		ret.StartTime = inner.StartTime
		ret.ExitCode = inner.ExitCode
		ret.Fault = inner.Fault
		ret.ProgramBrk = inner.ProgramBrk
		for id, count := range inner.SyscallTimes {
			if count == 0 {
				continue
			}
			if ret.SyscallTimes == nil {
				ret.SyscallTimes = map[string]uint32{}
			}
			name := abi.SyscallName(uint64(id))
			if name == "" {
				continue
			}
			ret.SyscallTimes[name] = count
		}
		if areas := inner.MemorySet.Areas(); len(areas) > 0 {
			ret.Areas = areas
		}
	})
	if reporter, ok := c.Program.(FailureReporter); ok {
		ret.Failures = reporter.Failures()
	}
	return ret
}
