package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var seen []Progress
	tracker := New("boot", func(p Progress) { seen = append(seen, p) })
	ctx := WithTracker(context.Background(), tracker)

	UpdateCtx(ctx, Delta{Total: 2, Ready: 2})
	UpdateCtx(ctx, Delta{Ready: -1, Running: 1})
	UpdateCtx(ctx, Delta{Running: -1, Exited: 1})
	assert.False(t, tracker.Snapshot().Done())
	UpdateCtx(ctx, Delta{Ready: -1, Killed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, 2, snapshot.TotalTasks)
	assert.Equal(t, 0, snapshot.ReadyTasks)
	assert.Equal(t, 1, snapshot.KilledTasks)
	assert.True(t, snapshot.Done())
	assert.Len(t, seen, 4)
	assert.Equal(t, 1, seen[1].RunningTasks)

	var nilTracker *Progress
	nilTracker.Update(Delta{Total: 1})
	assert.Equal(t, Progress{}, nilTracker.Snapshot())
	UpdateCtx(context.Background(), Delta{Total: 1})
}
