package strider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/model/abi"
	pmodel "github.com/viant/strider/model/program"
	"github.com/viant/strider/policy"
	"github.com/viant/strider/progress"
	"github.com/viant/strider/runtime/memory"
	rprogram "github.com/viant/strider/runtime/program"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/allocator"
	"github.com/viant/strider/service/dao"
	"github.com/viant/strider/service/dao/program"
	"github.com/viant/strider/service/event"
	"github.com/viant/strider/service/processor"
	"github.com/viant/strider/service/scheduler"
	"github.com/viant/strider/service/syscall"
)

// ErrRunning is returned when tasks are spawned while Run is active.
var ErrRunning = errors.New("strider: runtime is running")

// Runtime owns the kernel state: memory, ready queue, processor and task table.
// Spawn and Run must not overlap; the kernel is single-hart.
type Runtime struct {
	config     *Config
	clock      clock.Clock
	logger     *slog.Logger
	frames     *allocator.Service
	mem        *memory.PhysMemory
	scheduler  *scheduler.Service
	processor  *processor.Service
	syscalls   *syscall.Service
	programDAO *program.Service
	taskDAO    dao.Service[string, task.Record]
	events     *event.Service
	progress   *progress.Progress
	policy     *policy.Policy

	running atomic.Bool
	nextPID atomic.Uint64
	mux     sync.RWMutex
	tasks   map[uint64]*task.ControlBlock
}

// LoadProgram loads a program definition from a URL or a path relative to the meta base URL.
func (r *Runtime) LoadProgram(ctx context.Context, location string) (*pmodel.Definition, error) {
	return r.programDAO.Load(ctx, location)
}

// DecodeYAMLProgram decodes a program definition from YAML.
func (r *Runtime) DecodeYAMLProgram(data []byte) (*pmodel.Definition, error) {
	return r.programDAO.DecodeYAML(data)
}

// SpawnProgram creates a task running definition.
func (r *Runtime) SpawnProgram(ctx context.Context, definition *pmodel.Definition) (*task.ControlBlock, error) {
	if err := definition.Validate(); err != nil {
		return nil, err
	}
	tcb, err := r.spawn(ctx, definition.Name, rprogram.New(definition), definition.Priority, policy.FromConfig(definition.Policy))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn %v: %w", definition.Name, err)
	}
	return tcb, nil
}

// Spawn creates a Ready task running program. A zero priority uses the
// configured default.
func (r *Runtime) Spawn(ctx context.Context, name string, program task.Program, priority int64) (*task.ControlBlock, error) {
	return r.spawn(ctx, name, program, priority, nil)
}

func (r *Runtime) spawn(ctx context.Context, name string, program task.Program, priority int64, p *policy.Policy) (*task.ControlBlock, error) {
	if r.running.Load() {
		return nil, ErrRunning
	}
	if priority == 0 {
		priority = r.config.Scheduler.DefaultPriority
	}
	pid := r.nextPID.Add(1)
	tcb, err := task.New(pid, name, program, r.mem, r.config.Layout, priority)
	if err != nil {
		return nil, err
	}
	tcb.Policy = p
	tcb.SetStatus(abi.StatusReady)
	r.mux.Lock()
	r.tasks[pid] = tcb
	r.mux.Unlock()
	r.progress.Update(progress.Delta{Total: 1, Ready: 1})
	r.scheduler.Add(tcb)
	logger.TaskCreated(r.logger, pid, name, priority)
	r.record(ctx, tcb, &processor.Transition{Task: tcb, From: abi.StatusUnInit, To: abi.StatusReady}, event.TypeTaskCreated)
	return tcb, nil
}

// Run schedules tasks until every task exited, ctx is done, or no task can run.
func (r *Runtime) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer r.running.Store(false)
	ctx = progress.WithTracker(ctx, r.progress)
	if r.policy != nil {
		ctx = policy.WithPolicy(ctx, r.policy)
	}
	return r.processor.Run(ctx)
}

// Task returns the task with pid.
func (r *Runtime) Task(pid uint64) (*task.ControlBlock, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	tcb, ok := r.tasks[pid]
	return tcb, ok
}

// Tasks returns all spawned tasks in pid order.
func (r *Runtime) Tasks() []*task.ControlBlock {
	r.mux.RLock()
	ret := make([]*task.ControlBlock, 0, len(r.tasks))
	for _, tcb := range r.tasks {
		ret = append(ret, tcb)
	}
	r.mux.RUnlock()
	sort.Slice(ret, func(i, j int) bool { return ret[i].PID < ret[j].PID })
	return ret
}

// Records lists persisted task records, optionally filtered by dao.ParamStatus or dao.ParamName.
func (r *Runtime) Records(ctx context.Context, parameters ...*dao.Parameter) ([]*task.Record, error) {
	return r.taskDAO.List(ctx, parameters...)
}

// Progress returns a snapshot of the task counters.
func (r *Runtime) Progress() progress.Progress {
	return r.progress.Snapshot()
}

// FreeFrames returns the number of allocatable physical frames.
func (r *Runtime) FreeFrames() uint64 {
	return r.mem.FreeFrames()
}

// Events returns the task event service.
func (r *Runtime) Events() *event.Service {
	return r.events
}

// Close stops event listeners and reports task events that were never delivered.
func (r *Runtime) Close() {
	r.events.Close()
	if dropped, deadLetters := event.StatsOf[event.TaskEvent](r.events); dropped > 0 || deadLetters > 0 {
		r.logger.Warn("undelivered task events", "dropped", dropped, "deadLetters", deadLetters)
	}
}

func (r *Runtime) onTransition(ctx context.Context, transition *processor.Transition) {
	eventType := event.TypeTaskState
	if transition.To == abi.StatusExited {
		eventType = event.TypeTaskExited
		if transition.Fault != nil {
			eventType = event.TypeTaskKilled
		}
	}
	r.record(ctx, transition.Task, transition, eventType)
}

// record persists the task and publishes the transition; failures are logged only.
func (r *Runtime) record(ctx context.Context, tcb *task.ControlBlock, transition *processor.Transition, eventType string) {
	record := tcb.Record(clock.Now())
	if err := r.taskDAO.Save(ctx, record); err != nil {
		r.logger.Warn("failed to save task record", "pid", tcb.PID, "error", err)
	}
	data := event.TaskEvent{
		Name:     tcb.Name,
		From:     transition.From.String(),
		To:       transition.To.String(),
		Priority: record.Priority,
		Stride:   record.Stride,
		Code:     transition.Code,
		Reason:   transition.Reason,
	}
	if transition.Fault != nil {
		data.Fault = transition.Fault.Error()
	}
	eventContext := &event.Context{TaskID: tcb.ID, PID: tcb.PID, EventType: eventType}
	if err := event.Publish(ctx, r.events, eventContext, data); err != nil {
		r.logger.Debug("task event dropped", "pid", tcb.PID, "type", eventType, "error", err)
	}
}
