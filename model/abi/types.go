package abi

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// TaskStatus is the lifecycle state of a task; values are the wire tags.
type TaskStatus uint8

const (
	StatusUnInit TaskStatus = iota
	StatusReady
	StatusRunning
	StatusExited
)

var statusNames = [...]string{"uninit", "ready", "running", "exited"}

func (s TaskStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// ParseTaskStatus is the inverse of String.
func ParseTaskStatus(text string) (TaskStatus, error) {
	for i, name := range statusNames {
		if strings.EqualFold(name, text) {
			return TaskStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown task status: %q", text)
}

// TimeVal is a clock reading since boot.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// TimeValSize is the encoded size of TimeVal.
const TimeValSize = 16

// NewTimeVal splits a microsecond reading.
func NewTimeVal(us uint64) TimeVal {
	return TimeVal{Sec: us / 1_000_000, Usec: us % 1_000_000}
}

// MarshalBinary encodes sec then usec as little-endian machine words.
func (t TimeVal) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TimeValSize)
	binary.LittleEndian.PutUint64(buf[0:], t.Sec)
	binary.LittleEndian.PutUint64(buf[8:], t.Usec)
	return buf, nil
}

// UnmarshalBinary decodes the layout written by MarshalBinary.
func (t *TimeVal) UnmarshalBinary(data []byte) error {
	if len(data) < TimeValSize {
		return fmt.Errorf("timeval: short buffer %d", len(data))
	}
	t.Sec = binary.LittleEndian.Uint64(data[0:])
	t.Usec = binary.LittleEndian.Uint64(data[8:])
	return nil
}

// TaskInfo is a by-value snapshot of a task returned to user space.
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscallNum]uint32
	// Time is the elapsed milliseconds since the task first ran.
	Time uint64
}

// TaskInfo layout: u8 status tag, u32 counters aligned to 4, u64 time aligned to 8.
const (
	taskInfoTimesOffset = 4
	taskInfoTimeOffset  = 2008
	TaskInfoSize        = 2016
)

// MarshalBinary encodes the naturally aligned layout.
func (t *TaskInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TaskInfoSize)
	buf[0] = byte(t.Status)
	for i, count := range t.SyscallTimes {
		binary.LittleEndian.PutUint32(buf[taskInfoTimesOffset+4*i:], count)
	}
	binary.LittleEndian.PutUint64(buf[taskInfoTimeOffset:], t.Time)
	return buf, nil
}

// UnmarshalBinary decodes the layout written by MarshalBinary.
func (t *TaskInfo) UnmarshalBinary(data []byte) error {
	if len(data) < TaskInfoSize {
		return fmt.Errorf("taskinfo: short buffer %d", len(data))
	}
	t.Status = TaskStatus(data[0])
	for i := range t.SyscallTimes {
		t.SyscallTimes[i] = binary.LittleEndian.Uint32(data[taskInfoTimesOffset+4*i:])
	}
	t.Time = binary.LittleEndian.Uint64(data[taskInfoTimeOffset:])
	return nil
}
