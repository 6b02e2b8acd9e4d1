package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/model/types"
	"github.com/viant/strider/progress"
	"github.com/viant/strider/runtime/memory"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/allocator"
	"github.com/viant/strider/service/scheduler"
	"github.com/viant/strider/service/syscall"
)

type kernel struct {
	processor   *Service
	scheduler   *scheduler.Service
	mem         *memory.PhysMemory
	tracker     *progress.Progress
	transitions []*Transition
	nextPID     uint64
}

func newKernel(t *testing.T, timeSlice int) *kernel {
	config := allocator.Config{BasePPN: 0x80000, Frames: 256}
	frameAllocator, err := allocator.New(config)
	require.NoError(t, err)
	k := &kernel{
		mem:       memory.NewPhysMemory(config.BasePPN, config.Frames, frameAllocator),
		scheduler: scheduler.New(scheduler.DefaultConfig()),
		tracker:   progress.New("test", nil),
	}
	manual := clock.NewManual(0)
	k.processor, err = New(
		WithScheduler(k.scheduler),
		WithTimeSlice(timeSlice),
		WithClock(manual),
		WithLogger(logger.Discard()),
		WithProgress(k.tracker),
		WithListeners(func(_ context.Context, transition *Transition) {
			k.transitions = append(k.transitions, transition)
		}),
	)
	require.NoError(t, err)
	dispatcher, err := syscall.New(syscall.WithProcessor(k.processor), syscall.WithMemory(k.mem), syscall.WithClock(manual), syscall.WithLogger(logger.Discard()))
	require.NoError(t, err)
	k.processor.SetDispatcher(dispatcher)
	return k
}

func (k *kernel) spawn(t *testing.T, priority int64, program task.ProgramFunc) *task.ControlBlock {
	k.nextPID++
	tcb, err := task.New(k.nextPID, "t", program, k.mem, task.DefaultLayout(), priority)
	require.NoError(t, err)
	tcb.SetStatus(abi.StatusReady)
	k.tracker.Update(progress.Delta{Total: 1, Ready: 1})
	k.scheduler.Add(tcb)
	return tcb
}

// yielder yields on every step and exits after n rounds, logging its pid.
func yielder(n int, trace *[]uint64) task.ProgramFunc {
	rounds := 0
	return func(_ context.Context, env task.Env) bool {
		pid := uint64(env.Syscall(abi.SysGetPid))
		*trace = append(*trace, pid)
		rounds++
		if rounds == n {
			env.Syscall(abi.SysExit, uint64(pid))
			return true
		}
		env.Syscall(abi.SysYield)
		return true
	}
}

func TestService_RunStride(t *testing.T) {
	k := newKernel(t, 8)
	var trace []uint64
	low := k.spawn(t, 2, yielder(10, &trace))
	high := k.spawn(t, 4, yielder(10, &trace))

	require.NoError(t, k.processor.Run(context.Background()))
	assert.Len(t, trace, 20)
	// passes are 127 and 63: the priority 4 task runs about twice as often
	// and finishes first, on the 15th round
	assert.Equal(t, []uint64{1, 2, 2, 2, 1, 2, 2, 1, 2, 2}, trace[:10])
	assert.Equal(t, high.PID, trace[14])
	for _, pid := range trace[15:] {
		assert.Equal(t, low.PID, pid)
	}
	assert.Equal(t, abi.StatusExited, low.Status())
	assert.Equal(t, int32(1), low.ExitCode())
	assert.Equal(t, int32(2), high.ExitCode())

	snapshot := k.tracker.Snapshot()
	assert.True(t, snapshot.Done())
	assert.Equal(t, 2, snapshot.ExitedTasks)
	assert.Equal(t, 0, snapshot.RunningTasks)
	assert.Equal(t, 0, snapshot.ReadyTasks)
	assert.Nil(t, k.processor.Current())
}

func TestService_RunKillsFaultingTask(t *testing.T) {
	k := newKernel(t, 8)
	free := k.mem.FreeFrames()
	bad := k.spawn(t, 16, func(_ context.Context, env task.Env) bool {
		env.Store(0x10000000, 1)
		return true
	})
	illegal := k.spawn(t, 16, func(_ context.Context, env task.Env) bool {
		env.Syscall(999)
		return true
	})
	var ran bool
	good := k.spawn(t, 16, func(_ context.Context, env task.Env) bool {
		env.Store(0x1000, 42)
		ran = env.Load(0x1000) == 42
		return false
	})

	require.NoError(t, k.processor.Run(context.Background()))
	assert.Equal(t, int32(-2), bad.ExitCode())
	assert.Equal(t, int32(-3), illegal.ExitCode())
	assert.Equal(t, int32(0), good.ExitCode(), "exhausted program exits with 0")
	assert.True(t, ran)
	assert.Equal(t, free, k.mem.FreeFrames(), "every address space reclaimed")

	snapshot := k.tracker.Snapshot()
	assert.Equal(t, 2, snapshot.KilledTasks)
	assert.Equal(t, 1, snapshot.ExitedTasks)
	var killed []types.FaultKind
	for _, transition := range k.transitions {
		if transition.Fault != nil {
			killed = append(killed, transition.Fault.Kind)
		}
	}
	assert.Equal(t, []types.FaultKind{types.FaultPage, types.FaultIllegalSyscall}, killed)
}

func TestService_RunStopsAtExit(t *testing.T) {
	k := newKernel(t, 8)
	free := k.mem.FreeFrames()
	var afterExit []string
	tcb := k.spawn(t, 16, func(_ context.Context, env task.Env) bool {
		env.Syscall(abi.SysExit, 0)
		afterExit = append(afterExit, "exit returned")
		env.Syscall(abi.SysMmap, 0x10000000, 0x4000, 3)
		afterExit = append(afterExit, "mmap returned")
		env.Store(0x1000, 42)
		afterExit = append(afterExit, "store returned")
		return true
	})

	require.NoError(t, k.processor.Run(context.Background()))
	assert.Empty(t, afterExit, "nothing runs after exit")
	assert.Equal(t, free, k.mem.FreeFrames(), "no frame leaked")
	assert.Equal(t, int32(0), tcb.ExitCode())
	assert.Equal(t, uint32(0), tcb.Snapshot(0).SyscallTimes[abi.SysMmap])

	snapshot := k.tracker.Snapshot()
	assert.Equal(t, 1, snapshot.ExitedTasks)
	assert.Equal(t, 0, snapshot.KilledTasks)
	last := k.transitions[len(k.transitions)-1]
	assert.Equal(t, abi.StatusExited, last.To)
	assert.Nil(t, last.Fault)
}

func TestService_RunPreempts(t *testing.T) {
	k := newKernel(t, 4)
	steps := 0
	tcb := k.spawn(t, 16, func(context.Context, task.Env) bool {
		steps++
		return steps <= 10
	})
	require.NoError(t, k.processor.Run(context.Background()))
	assert.Equal(t, 11, steps)
	preempted := 0
	for _, transition := range k.transitions {
		if transition.Task == tcb && transition.To == abi.StatusReady {
			preempted++
		}
	}
	assert.Equal(t, 2, preempted)
	assert.Equal(t, int64(3*(255/16)), tcb.Stride())
}

func TestService_RunStalled(t *testing.T) {
	k := newKernel(t, 4)
	k.spawn(t, 16, func(context.Context, task.Env) bool { return false }).SetStatus(abi.StatusUnInit)
	assert.ErrorIs(t, k.processor.Run(context.Background()), ErrStalled)
}

func TestService_RunCancelled(t *testing.T) {
	k := newKernel(t, 4)
	k.spawn(t, 16, func(context.Context, task.Env) bool { return true })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, k.processor.Run(ctx), context.Canceled)
}

func TestNew_Validation(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
	_, err = New(WithScheduler(scheduler.New(scheduler.DefaultConfig())), WithConfig(Config{}))
	assert.Error(t, err)
	srv, err := New(WithScheduler(scheduler.New(scheduler.DefaultConfig())))
	require.NoError(t, err)
	assert.Error(t, srv.Run(context.Background()), "dispatcher is required")
	assert.Panics(t, func() { srv.CurrentUserToken() })
}

func TestService_CurrentUserToken(t *testing.T) {
	k := newKernel(t, 8)
	var token uint64
	tcb := k.spawn(t, 16, func(context.Context, task.Env) bool {
		token = k.processor.CurrentUserToken()
		return false
	})
	require.NoError(t, k.processor.Run(context.Background()))
	assert.Equal(t, tcb.Token(), token)
	assert.Equal(t, uint64(8)<<60, token&(uint64(0xf)<<60), "sv39 mode")
}
