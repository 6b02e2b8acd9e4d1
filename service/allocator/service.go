package allocator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viant/strider/model/mm"
)

// ErrInvalidRange is returned when the configured frame range is empty.
var ErrInvalidRange = errors.New("allocator: invalid frame range")

// Config represents allocator service configuration
type Config struct {
	// BasePPN is the first frame number handed out.
	BasePPN mm.PhysPageNum `yaml:"basePPN"`
	// Frames is the number of frames managed.
	Frames uint64 `yaml:"frames"`
}

// DefaultConfig returns the default allocator configuration
func DefaultConfig() Config {
	return Config{
		BasePPN: 0x80000,
		Frames:  4096,
	}
}

// Service is a stack frame allocator: fresh frames come from a bump pointer,
// freed ones are recycled first.
type Service struct {
	mu       sync.Mutex
	config   Config
	current  mm.PhysPageNum
	end      mm.PhysPageNum
	recycled []mm.PhysPageNum
	inUse    map[mm.PhysPageNum]bool
}

// New creates a new allocator service
func New(config Config) (*Service, error) {
	if config.Frames == 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrInvalidRange, config.Frames)
	}
	return &Service{
		config:  config,
		current: config.BasePPN,
		end:     config.BasePPN + mm.PhysPageNum(config.Frames),
		inUse:   make(map[mm.PhysPageNum]bool),
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config { return s.config }

// Alloc hands out a frame; ok is false when the pool is exhausted.
func (s *Service) Alloc() (mm.PhysPageNum, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ppn mm.PhysPageNum
	if n := len(s.recycled); n > 0 {
		ppn = s.recycled[n-1]
		s.recycled = s.recycled[:n-1]
	} else if s.current < s.end {
		ppn = s.current
		s.current++
	} else {
		return 0, false
	}
	s.inUse[ppn] = true
	return ppn, true
}

// Dealloc returns a frame to the pool. Freeing a frame that is not in use
// corrupts the pool, so it panics.
func (s *Service) Dealloc(ppn mm.PhysPageNum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inUse[ppn] {
		panic(fmt.Sprintf("allocator: frame %#x has not been allocated", uint64(ppn)))
	}
	delete(s.inUse, ppn)
	s.recycled = append(s.recycled, ppn)
}

// Free returns the number of frames still available.
func (s *Service) Free() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.end-s.current) + uint64(len(s.recycled))
}

// InUse returns the number of frames handed out.
func (s *Service) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inUse)
}

// Contains reports whether ppn belongs to the managed range.
func (s *Service) Contains(ppn mm.PhysPageNum) bool {
	return ppn >= s.config.BasePPN && ppn < s.end
}
