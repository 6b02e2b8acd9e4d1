package syscall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/model/mm"
	"github.com/viant/strider/model/types"
	"github.com/viant/strider/policy"
	"github.com/viant/strider/runtime/memory"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/tracing"
)

// Processor exposes the current task and the scheduling hooks.
type Processor interface {
	Current() *task.ControlBlock
	CurrentUserToken() uint64
	SuspendCurrentAndRunNext()
	ExitCurrentAndRunNext(code int32)
}

// Service dispatches syscalls for the current task.
type Service struct {
	processor Processor
	mem       *memory.PhysMemory
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a syscall service
func New(options ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range options {
		opt(s)
	}
	if s.processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if s.mem == nil {
		return nil, fmt.Errorf("memory is required")
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	s.logger = logger.OrDefault(s.logger)
	return s, nil
}

func (s *Service) current() *task.ControlBlock {
	current := s.processor.Current()
	if current == nil {
		panic("syscall: no current task")
	}
	return current
}

// Dispatch routes syscall id with its argument registers.
func (s *Service) Dispatch(ctx context.Context, id uint64, args [3]uint64) (ret int64) {
	current := s.current()
	current.RecordSyscall(id)
	name := abi.SyscallName(id)
	logger.SyscallReceived(s.logger, current.PID, name, args)
	if name == "" {
		panic(types.NewIllegalSyscallFault(id, "unsupported"))
	}
	taskPolicy := current.Policy
	if taskPolicy == nil {
		taskPolicy = policy.FromContext(ctx)
	}
	if id != abi.SysExit && !taskPolicy.Permit(ctx, name, args[:]) {
		s.logger.Info("syscall denied by policy", "pid", current.PID, "name", name)
		if slice, ok := tracing.SpanFromContext(ctx); ok {
			slice.WithAttributes(map[string]string{"syscall.denied": name})
		}
		return -1
	}

	_, span := tracing.StartSyscallSpan(ctx, current.PID, name, args)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("syscall %v: %v", name, r)
			if fault, ok := r.(*types.Fault); ok {
				err = fault
			}
			tracing.EndSpan(span, err)
			panic(r)
		}
		span.WithInt("syscall.result", ret)
		tracing.EndSpan(span, nil)
	}()

	switch id {
	case abi.SysExit:
		return s.Exit(int32(args[0]))
	case abi.SysYield:
		return s.Yield()
	case abi.SysGetTime:
		return s.GetTime(args[0], args[1])
	case abi.SysTaskInfo:
		return s.TaskInfo(args[0])
	case abi.SysMmap:
		return s.Mmap(args[0], args[1], args[2])
	case abi.SysMunmap:
		return s.Munmap(args[0], args[1])
	case abi.SysSbrk:
		return s.Sbrk(int32(args[0]))
	case abi.SysSetPriority:
		return s.SetPriority(int64(args[0]))
	case abi.SysGetPid:
		return s.GetPid()
	}
	panic(types.NewIllegalSyscallFault(id, "no handler"))
}

// Exit retires the current task; control never returns to it.
func (s *Service) Exit(code int32) int64 {
	s.processor.ExitCurrentAndRunNext(code)
	return 0
}

// Yield gives up the rest of the time slice.
func (s *Service) Yield() int64 {
	s.processor.SuspendCurrentAndRunNext()
	return 0
}

// GetTime writes a TimeVal at ts; tz is ignored.
func (s *Service) GetTime(ts uint64, _ uint64) int64 {
	data, _ := abi.NewTimeVal(s.clock.NowUs()).MarshalBinary()
	memory.CopyToUser(s.mem, s.processor.CurrentUserToken(), ts, data)
	return 0
}

// TaskInfo writes a snapshot of the current task at ti.
func (s *Service) TaskInfo(ti uint64) int64 {
	if ti == 0 {
		return -1
	}
	info := s.current().Snapshot(s.clock.NowMs())
	data, _ := info.MarshalBinary()
	memory.CopyToUser(s.mem, s.processor.CurrentUserToken(), ti, data)
	return 0
}

// Mmap maps [start, start+length) with the permissions encoded in port.
func (s *Service) Mmap(start, length, port uint64) int64 {
	if !mm.VirtAddr(start).Aligned() || length == 0 {
		return -1
	}
	perm, ok := mm.PermissionFromPort(port)
	if !ok {
		return -1
	}
	first, last, ok := mm.PageRange(start, length)
	if !ok {
		return -1
	}
	if err := s.current().MapFramed(first, last, perm); err != nil {
		if errors.Is(err, memory.ErrOutOfFrames) {
			panic(types.NewOutOfFramesFault(err.Error()))
		}
		return -1
	}
	return 0
}

// Munmap removes [start, start+length), which must lie inside one mmap region.
func (s *Service) Munmap(start, length uint64) int64 {
	if !mm.VirtAddr(start).Aligned() || length == 0 {
		return -1
	}
	first, last, ok := mm.PageRange(start, length)
	if !ok {
		return -1
	}
	if !s.current().UnmapFramed(first, last) {
		return -1
	}
	return 0
}

// Sbrk moves the program break by size and returns the previous break.
func (s *Service) Sbrk(size int32) int64 {
	old, err := s.current().ChangeProgramBrk(size)
	if err != nil {
		if errors.Is(err, memory.ErrOutOfFrames) {
			panic(types.NewOutOfFramesFault(err.Error()))
		}
		return -1
	}
	return int64(old)
}

// SetPriority changes the current task priority and returns it.
func (s *Service) SetPriority(priority int64) int64 {
	if err := s.current().SetPriority(priority); err != nil {
		return -1
	}
	return priority
}

// GetPid returns the current task pid.
func (s *Service) GetPid() int64 {
	return int64(s.current().PID)
}
