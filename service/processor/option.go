package processor

import (
	"log/slog"

	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/progress"
	"github.com/viant/strider/service/scheduler"
)

// Option configures the processor
type Option func(*Service)

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithScheduler sets the ready queue owner
func WithScheduler(scheduler *scheduler.Service) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

// WithDispatcher sets the syscall dispatcher
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = dispatcher
	}
}

// WithClock sets the clock used to latch start times
func WithClock(clock clock.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProgress sets the progress tracker updated on every state change; without
// it the tracker carried by the Run context is used
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.progress = tracker
	}
}

// WithListeners registers callbacks invoked after every task state change.
func WithListeners(listeners ...Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithTimeSlice sets the number of program steps per slice
func WithTimeSlice(steps int) Option {
	return func(s *Service) {
		s.config.TimeSlice = steps
	}
}
