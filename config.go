package strider

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/meta"
)

// Config is the serialisable runtime configuration. Fields missing from a
// loaded document keep their DefaultConfig values.
type Config struct {
	Memory    MemoryConfig    `json:"memory" yaml:"memory"`
	Layout    task.Layout     `json:"layout" yaml:"layout"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}

type MemoryConfig struct {
	Frames  uint64 `json:"frames" yaml:"frames"`
	BasePPN uint64 `json:"basePPN" yaml:"basePPN"`
	// ReservedFrames at the bottom of memory hold the kernel image and are never allocated.
	ReservedFrames uint64 `json:"reservedFrames" yaml:"reservedFrames"`
}

type SchedulerConfig struct {
	BigStride       int64 `json:"bigStride" yaml:"bigStride"`
	DefaultPriority int64 `json:"defaultPriority" yaml:"defaultPriority"`
	TimeSlice       int   `json:"timeSlice" yaml:"timeSlice"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// StoreConfig selects the task record store; an empty URL keeps records in memory.
type StoreConfig struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Memory:    MemoryConfig{Frames: 4096, BasePPN: 0x80000, ReservedFrames: 64},
		Layout:    task.DefaultLayout(),
		Scheduler: SchedulerConfig{BigStride: 255, DefaultPriority: 16, TimeSlice: 8},
		Log:       LogConfig{Level: "info"},
		Tracing:   TracingConfig{Service: "strider", Version: "0.1.0"},
	}
}

// Validate returns all invalid settings joined, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var issues []error
	if c.Memory.Frames == 0 {
		issues = append(issues, errors.New("memory.frames must be > 0"))
	}
	if c.Memory.ReservedFrames >= c.Memory.Frames {
		issues = append(issues, fmt.Errorf("memory.reservedFrames %d leaves no allocatable frames of %d", c.Memory.ReservedFrames, c.Memory.Frames))
	}
	if err := c.Layout.Validate(); err != nil {
		issues = append(issues, fmt.Errorf("layout: %w", err))
	}
	if c.Scheduler.BigStride <= 0 {
		issues = append(issues, errors.New("scheduler.bigStride must be > 0"))
	}
	if c.Scheduler.DefaultPriority < task.MinPriority {
		issues = append(issues, fmt.Errorf("scheduler.defaultPriority must be >= %d", task.MinPriority))
	}
	if c.Scheduler.TimeSlice <= 0 {
		issues = append(issues, errors.New("scheduler.timeSlice must be > 0"))
	}
	return errors.Join(issues...)
}

// LoadConfig reads a YAML config from any afs URL over DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if err := meta.New(nil, "").Load(ctx, URL, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
