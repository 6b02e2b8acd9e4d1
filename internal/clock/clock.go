package clock

import (
	"sync/atomic"
	"time"
)

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Clock reports time elapsed since boot.
type Clock interface {
	NowUs() uint64
	NowMs() uint64
}

// System measures elapsed wall time from its creation through NowFunc.
type System struct {
	boot time.Time
}

// NewSystem starts a clock at Now.
func NewSystem() *System {
	return &System{boot: Now()}
}

func (s *System) NowUs() uint64 {
	elapsed := Now().Sub(s.boot)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / time.Microsecond)
}

func (s *System) NowMs() uint64 { return s.NowUs() / 1000 }

// Manual only moves when advanced.
type Manual struct {
	us atomic.Uint64
}

// NewManual starts a manual clock at us.
func NewManual(us uint64) *Manual {
	ret := &Manual{}
	ret.us.Store(us)
	return ret
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.us.Add(uint64(d / time.Microsecond))
}

func (m *Manual) NowUs() uint64 { return m.us.Load() }
func (m *Manual) NowMs() uint64 { return m.NowUs() / 1000 }
