package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	sys := NewSystem()
	now = base.Add(1500 * time.Millisecond)
	assert.Equal(t, uint64(1_500_000), sys.NowUs())
	assert.Equal(t, uint64(1500), sys.NowMs())

	now = base.Add(-time.Second)
	assert.Equal(t, uint64(0), sys.NowUs())
}

func TestManual(t *testing.T) {
	m := NewManual(10)
	m.Advance(3 * time.Millisecond)
	assert.Equal(t, uint64(3010), m.NowUs())
	assert.Equal(t, uint64(3), m.NowMs())
}
