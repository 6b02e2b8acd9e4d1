package strider

import (
	"log/slog"

	"github.com/viant/afs/storage"
	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/policy"
	"github.com/viant/strider/progress"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/dao"
	"github.com/viant/strider/service/event"
	"github.com/viant/strider/service/meta"
	"github.com/viant/strider/service/processor"
)

// Option configures a Service
type Option func(s *Service)

// WithConfig sets the runtime configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithClock sets the kernel clock
func WithClock(clock clock.Clock) Option {
	return func(s *Service) {
		s.runtime.clock = clock
	}
}

// WithTaskDAO sets the task record store
func WithTaskDAO(dao dao.Service[string, task.Record]) Option {
	return func(s *Service) {
		s.runtime.taskDAO = dao
	}
}

// WithEventService sets the task event service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.runtime.events = service
	}
}

// WithMetaService sets the program meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the base URL relative program locations resolve against
func WithMetaBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.metaBaseURL = baseURL
	}
}

// WithMetaFsOptions sets the storage options used to load programs
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithTracing enables tracing to outputFile; empty means stdout
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracing = &TracingConfig{Enabled: true, Service: serviceName, Version: serviceVersion, Output: outputFile}
	}
}

// WithLogger sets the kernel logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.runtime.logger = logger
	}
}

// WithListeners adds task transition listeners
func WithListeners(listeners ...processor.Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithPolicy sets the syscall policy of tasks spawned without their own
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithProgressListener registers a callback invoked on every counter change
func WithProgressListener(cb func(progress.Progress)) Option {
	return func(s *Service) {
		s.onProgress = cb
	}
}
