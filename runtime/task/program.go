package task

import "context"

// Env is what a running program sees of the machine: the syscall trap and
// loads/stores through its own address space.
type Env interface {
	Syscall(id uint64, args ...uint64) int64
	Load(va uint64) uint64
	Store(va uint64, value uint64)
}

// Program is user code executed one step at a time.
type Program interface {
	// Step executes one instruction. It returns false once nothing is left to run.
	Step(ctx context.Context, env Env) bool
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, env Env) bool

func (f ProgramFunc) Step(ctx context.Context, env Env) bool { return f(ctx, env) }

// FailureReporter is implemented by programs that track unmet expectations.
type FailureReporter interface {
	Failures() []string
}
