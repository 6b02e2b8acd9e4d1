// Package scheduler implements stride scheduling over the ready queue.
package scheduler

import (
	"math"

	"github.com/viant/strider/internal/exclusive"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/runtime/task"
)

// Config represents scheduler configuration
type Config struct {
	// BigStride is divided by a task's priority to get its pass.
	BigStride int64 `yaml:"bigStride"`
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{BigStride: 255}
}

// Service owns the ready queue.
type Service struct {
	config Config
	queue  *exclusive.Cell[[]*task.ControlBlock]
}

// New creates a scheduler.
func New(config Config) *Service {
	if config.BigStride <= 0 {
		config.BigStride = DefaultConfig().BigStride
	}
	return &Service{config: config, queue: exclusive.New("ready queue", []*task.ControlBlock(nil))}
}

// Pass returns the stride advance for priority.
func (s *Service) Pass(priority int64) int64 {
	if priority < task.MinPriority {
		priority = task.MinPriority
	}
	return s.config.BigStride / priority
}

// Add appends a task to the ready queue.
func (s *Service) Add(tcb *task.ControlBlock) {
	s.queue.With(func(queue *[]*task.ControlBlock) {
		*queue = append(*queue, tcb)
	})
}

// Fetch removes and returns the Ready task with the smallest stride, the
// first one in queue order on ties. The chosen task's stride is advanced by
// its pass before removal. It returns nil when nothing is runnable.
func (s *Service) Fetch() *task.ControlBlock {
	return exclusive.Get(s.queue, func(queue *[]*task.ControlBlock) *task.ControlBlock {
		minStride := int64(math.MaxInt64)
		minIdx := -1
		for i, tcb := range *queue {
			tcb.With(func(inner *task.Inner) {
				if inner.Status == abi.StatusReady && inner.Stride < minStride {
					minStride = inner.Stride
					minIdx = i
				}
			})
		}
		if minIdx < 0 {
			return nil
		}
		selected := (*queue)[minIdx]
		selected.With(func(inner *task.Inner) {
			inner.Stride += s.Pass(inner.Priority)
		})
		*queue = append((*queue)[:minIdx], (*queue)[minIdx+1:]...)
		return selected
	})
}

// Len returns the number of queued tasks, runnable or not.
func (s *Service) Len() int {
	return exclusive.Get(s.queue, func(queue *[]*task.ControlBlock) int { return len(*queue) })
}

// Tasks returns the queued tasks in queue order.
func (s *Service) Tasks() []*task.ControlBlock {
	return exclusive.Get(s.queue, func(queue *[]*task.ControlBlock) []*task.ControlBlock {
		return append([]*task.ControlBlock(nil), *queue...)
	})
}
