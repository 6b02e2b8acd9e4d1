package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/strider/internal/clock"
)

// Delta is an incremental counter change emitted by the processor.
// Fields are signed and may decrement.
type Delta struct {
	Total   int
	Ready   int
	Running int
	Exited  int
	Killed  int
}

// Progress keeps aggregated task counters. It is safe for concurrent use.
type Progress struct {
	Runtime   string
	StartedAt time.Time

	TotalTasks   int
	ReadyTasks   int
	RunningTasks int
	ExitedTasks  int
	KilledTasks  int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker for the named runtime.
func New(runtime string, onChange func(Progress)) *Progress {
	return &Progress{Runtime: runtime, StartedAt: clock.Now(), onChange: onChange}
}

// Update applies the delta and notifies the onChange callback outside the
// critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.TotalTasks += d.Total
	p.ReadyTasks += d.Ready
	p.RunningTasks += d.Running
	p.ExitedTasks += d.Exited
	p.KilledTasks += d.Killed
	snapshot := p.copyLocked()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) copyLocked() Progress {
	return Progress{
		Runtime:      p.Runtime,
		StartedAt:    p.StartedAt,
		TotalTasks:   p.TotalTasks,
		ReadyTasks:   p.ReadyTasks,
		RunningTasks: p.RunningTasks,
		ExitedTasks:  p.ExitedTasks,
		KilledTasks:  p.KilledTasks,
	}
}

// Snapshot returns a copy for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copyLocked()
}

// Done reports whether every task has finished.
func (p Progress) Done() bool {
	return p.TotalTasks == p.ExitedTasks+p.KilledTasks
}

// OnChange registers the callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in a derived context.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
