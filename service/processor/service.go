package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/internal/exclusive"
	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/model/types"
	"github.com/viant/strider/progress"
	"github.com/viant/strider/runtime/memory"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/scheduler"
	"github.com/viant/strider/tracing"
)

// ErrStalled is returned when the ready queue holds tasks but none is Ready.
var ErrStalled = errors.New("processor: no runnable task")

// exitUnwind is raised inside a program step once its task has exited, so
// that nothing of the task runs after exit.
type exitUnwind struct{}

// Config represents processor configuration
type Config struct {
	// TimeSlice is the number of program steps before a task is preempted.
	TimeSlice int `yaml:"timeSlice"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{TimeSlice: 8}
}

// Dispatcher handles a trap into the kernel.
type Dispatcher interface {
	Dispatch(ctx context.Context, id uint64, args [3]uint64) int64
}

// Transition describes one task state change.
type Transition struct {
	Task   *task.ControlBlock
	From   abi.TaskStatus
	To     abi.TaskStatus
	Code   int32
	Fault  *types.Fault
	Reason string
}

// Listener observes task state changes.
type Listener func(ctx context.Context, transition *Transition)

type slot struct {
	task          *task.ControlBlock
	switchPending bool
}

// Service steps the current task.
type Service struct {
	config     Config
	scheduler  *scheduler.Service
	dispatcher Dispatcher
	clock      clock.Clock
	logger     *slog.Logger
	progress   *progress.Progress
	listeners  []Listener
	current    *exclusive.Cell[slot]
}

// New creates a processor
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:  DefaultConfig(),
		current: exclusive.New("current task", slot{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if s.config.TimeSlice <= 0 {
		return nil, fmt.Errorf("invalid time slice: %d", s.config.TimeSlice)
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	s.logger = logger.OrDefault(s.logger)
	return s, nil
}

// SetDispatcher sets the syscall dispatcher once both services exist.
func (s *Service) SetDispatcher(dispatcher Dispatcher) {
	s.dispatcher = dispatcher
}

// Current returns the task presently executing, or nil.
func (s *Service) Current() *task.ControlBlock {
	return exclusive.Get(s.current, func(cur *slot) *task.ControlBlock { return cur.task })
}

// CurrentUserToken returns the page table token of the current task.
func (s *Service) CurrentUserToken() uint64 {
	current := s.Current()
	if current == nil {
		panic("processor: no current task")
	}
	return current.Token()
}

// SuspendCurrentAndRunNext marks the current task Ready; it is re-queued and
// another task is picked once the current step returns.
func (s *Service) SuspendCurrentAndRunNext() {
	current := s.markSwitch()
	if current == nil {
		return
	}
	current.SetStatus(abi.StatusReady)
}

// ExitCurrentAndRunNext retires the current task with code and releases its
// address space. The running step unwinds at its next trap or memory access.
func (s *Service) ExitCurrentAndRunNext(code int32) {
	current := s.markSwitch()
	if current == nil {
		return
	}
	current.Exit(code, "")
}

func (s *Service) markSwitch() *task.ControlBlock {
	return exclusive.Get(s.current, func(cur *slot) *task.ControlBlock {
		if cur.task != nil {
			cur.switchPending = true
		}
		return cur.task
	})
}

func (s *Service) switchPending() bool {
	return exclusive.Get(s.current, func(cur *slot) bool { return cur.switchPending })
}

// Run schedules tasks until the ready queue drains or ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if s.dispatcher == nil {
		return fmt.Errorf("dispatcher is required")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := s.scheduler.Fetch()
		if next == nil {
			if s.scheduler.Len() == 0 {
				return nil
			}
			return ErrStalled
		}
		s.RunTask(ctx, next)
	}
}

// RunTask gives tcb one time slice and files it according to its outcome.
func (s *Service) RunTask(ctx context.Context, tcb *task.ControlBlock) {
	var err error
	ctx, span := tracing.StartSliceSpan(ctx, tcb.PID, tcb.Name)
	defer func() { tracing.EndSpan(span, err) }()

	from := tcb.MarkRunning(s.clock.NowMs())
	s.notify(ctx, &Transition{Task: tcb, From: from, To: abi.StatusRunning}, progress.Delta{Ready: -1, Running: 1})
	s.current.With(func(cur *slot) { *cur = slot{task: tcb} })
	defer s.current.With(func(cur *slot) { *cur = slot{} })

	exhausted, fault := s.step(ctx, tcb)
	switch {
	case fault != nil:
		err = fault
		tcb.Exit(fault.Kind.ExitCode(), fault.Error())
		logger.TaskKilled(s.logger, tcb.PID, fault.Error(), fault.Kind.ExitCode())
		s.notify(ctx, &Transition{Task: tcb, From: abi.StatusRunning, To: abi.StatusExited, Code: fault.Kind.ExitCode(), Fault: fault, Reason: fault.Kind.String()},
			progress.Delta{Running: -1, Killed: 1})
		return
	case exhausted && tcb.Status() == abi.StatusRunning:
		s.ExitCurrentAndRunNext(0)
	case !s.switchPending():
		tcb.SetStatus(abi.StatusReady)
	}

	switch tcb.Status() {
	case abi.StatusReady:
		s.notify(ctx, &Transition{Task: tcb, From: abi.StatusRunning, To: abi.StatusReady}, progress.Delta{Running: -1, Ready: 1})
		s.scheduler.Add(tcb)
	case abi.StatusExited:
		code := tcb.ExitCode()
		logger.TaskExited(s.logger, tcb.PID, code)
		s.notify(ctx, &Transition{Task: tcb, From: abi.StatusRunning, To: abi.StatusExited, Code: code}, progress.Delta{Running: -1, Exited: 1})
	}
}

func (s *Service) step(ctx context.Context, tcb *task.ControlBlock) (exhausted bool, fault *types.Fault) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(exitUnwind); ok {
				exhausted, fault = false, nil
				return
			}
			fault = types.RecoveredFault(r)
		}
	}()
	env := &userEnv{ctx: ctx, dispatcher: s.dispatcher, tcb: tcb, mem: tcb.MemorySet().Memory()}
	for i := 0; i < s.config.TimeSlice; i++ {
		if ctx.Err() != nil {
			return false, nil
		}
		if !tcb.Program.Step(ctx, env) {
			return true, nil
		}
		if s.switchPending() {
			return false, nil
		}
	}
	return false, nil
}

func (s *Service) notify(ctx context.Context, transition *Transition, delta progress.Delta) {
	logger.StateChanged(s.logger, transition.Task.PID, transition.From.String(), transition.To.String())
	if s.progress != nil {
		s.progress.Update(delta)
	} else {
		progress.UpdateCtx(ctx, delta)
	}
	for _, listener := range s.listeners {
		listener(ctx, transition)
	}
}

// userEnv is the machine as seen by the running program.
type userEnv struct {
	ctx        context.Context
	dispatcher Dispatcher
	tcb        *task.ControlBlock
	mem        *memory.PhysMemory
}

// ensureAlive unwinds the step when the task already exited.
func (e *userEnv) ensureAlive() {
	if e.tcb.Status() == abi.StatusExited {
		panic(exitUnwind{})
	}
}

func (e *userEnv) Syscall(id uint64, args ...uint64) int64 {
	e.ensureAlive()
	var regs [3]uint64
	copy(regs[:], args)
	ret := e.dispatcher.Dispatch(e.ctx, id, regs)
	e.ensureAlive()
	return ret
}

func (e *userEnv) Load(va uint64) uint64 {
	e.ensureAlive()
	return memory.LoadWord(e.mem, e.tcb.Token(), va)
}

func (e *userEnv) Store(va uint64, value uint64) {
	e.ensureAlive()
	memory.StoreWord(e.mem, e.tcb.Token(), va, value)
}
