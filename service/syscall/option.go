package syscall

import (
	"log/slog"

	"github.com/viant/strider/internal/clock"
	"github.com/viant/strider/runtime/memory"
)

// Option configures the syscall service
type Option func(*Service)

// WithProcessor sets the owner of the current task slot
func WithProcessor(processor Processor) Option {
	return func(s *Service) {
		s.processor = processor
	}
}

// WithMemory sets physical memory used for cross-space copies
func WithMemory(mem *memory.PhysMemory) Option {
	return func(s *Service) {
		s.mem = mem
	}
}

// WithClock sets the boot clock
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
