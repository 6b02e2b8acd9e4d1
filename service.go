package strider

import (
	"fmt"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/model/mm"
	"github.com/viant/strider/policy"
	"github.com/viant/strider/progress"
	"github.com/viant/strider/runtime/memory"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/allocator"
	"github.com/viant/strider/service/dao/program"
	tfs "github.com/viant/strider/service/dao/task/fs"
	tmemory "github.com/viant/strider/service/dao/task/memory"
	"github.com/viant/strider/service/event"
	"github.com/viant/strider/service/meta"
	"github.com/viant/strider/service/processor"
	"github.com/viant/strider/service/scheduler"
	"github.com/viant/strider/service/syscall"
	"github.com/viant/strider/tracing"
)

// Service assembles a Runtime from configuration and options.
type Service struct {
	runtime       *Runtime
	config        *Config
	metaService   *meta.Service
	metaBaseURL   string
	metaFsOptions []storage.Option
	tracing       *TracingConfig
	listeners     []processor.Listener
	onProgress    func(progress.Progress)
	policy        *policy.Policy
}

// Runtime returns the assembled runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	r := s.runtime
	cfg := s.config

	reserved := mm.PhysPageNum(cfg.Memory.BasePPN + cfg.Memory.ReservedFrames)
	frames, err := allocator.New(allocator.Config{BasePPN: reserved, Frames: cfg.Memory.Frames - cfg.Memory.ReservedFrames})
	if err != nil {
		return err
	}
	r.frames = frames
	r.mem = memory.NewPhysMemory(reserved, cfg.Memory.Frames-cfg.Memory.ReservedFrames, frames)
	r.scheduler = scheduler.New(scheduler.Config{BigStride: cfg.Scheduler.BigStride})
	r.progress = progress.New("strider", s.onProgress)
	listeners := append([]processor.Listener{r.onTransition}, s.listeners...)
	if r.processor, err = processor.New(
		processor.WithScheduler(r.scheduler),
		processor.WithTimeSlice(cfg.Scheduler.TimeSlice),
		processor.WithClock(r.clock),
		processor.WithLogger(r.logger),
		processor.WithListeners(listeners...),
	); err != nil {
		return err
	}
	if r.syscalls, err = syscall.New(
		syscall.WithProcessor(r.processor),
		syscall.WithMemory(r.mem),
		syscall.WithClock(r.clock),
		syscall.WithLogger(r.logger),
	); err != nil {
		return err
	}
	r.processor.SetDispatcher(r.syscalls)
	return nil
}

func (s *Service) ensureBaseSetup() error {
	r := s.runtime
	r.config = s.config
	r.policy = s.policy
	if r.logger == nil {
		r.logger = logger.New(os.Stderr, s.config.Log.Level)
	}
	if r.clock == nil {
		r.clock = clock.NewSystem()
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if r.programDAO == nil {
		r.programDAO = program.New(program.WithMetaService(s.metaService), program.WithCache(true))
	}
	if r.taskDAO == nil {
		if URL := s.config.Store.URL; URL != "" {
			store, err := tfs.New(URL, r.logger)
			if err != nil {
				return fmt.Errorf("failed to create task store: %w", err)
			}
			r.taskDAO = store
		} else {
			r.taskDAO = tmemory.New()
		}
	}
	if r.events == nil {
		r.events = event.New(event.WithLogger(r.logger))
	}
	tracingConfig := s.tracing
	if tracingConfig == nil && s.config.Tracing.Enabled {
		tracingConfig = &s.config.Tracing
	}
	if tracingConfig != nil {
		if err := tracing.Init(tracingConfig.Service, tracingConfig.Version, tracingConfig.Output); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	return nil
}

// New creates a service
func New(options ...Option) (*Service, error) {
	ret := &Service{runtime: &Runtime{tasks: map[uint64]*task.ControlBlock{}}}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
