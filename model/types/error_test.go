package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFault_ExitCode(t *testing.T) {
	assert.EqualValues(t, -2, NewPageFault(0x1000, "unmapped").Kind.ExitCode())
	assert.EqualValues(t, -3, NewIllegalSyscallFault(7, "unknown").Kind.ExitCode())
	assert.EqualValues(t, -4, NewOutOfFramesFault("mmap").Kind.ExitCode())
	assert.EqualValues(t, -1, FaultKind(0).ExitCode())
}

func TestFault_Error(t *testing.T) {
	assert.Equal(t, "page fault at 0x1000: unmapped", NewPageFault(0x1000, "unmapped").Error())
	assert.Equal(t, "illegal syscall 7: unknown", NewIllegalSyscallFault(7, "unknown").Error())
}

func TestRecoveredFault(t *testing.T) {
	fault := NewPageFault(0x10, "x")
	assert.Same(t, fault, RecoveredFault(fault))
	assert.Same(t, fault, RecoveredFault(fmt.Errorf("wrapped: %w", fault)))
	assert.Panics(t, func() { RecoveredFault("boom") })
}
