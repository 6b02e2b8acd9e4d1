package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/runtime/memory"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/allocator"
)

func newTasks(t *testing.T, priorities ...int64) []*task.ControlBlock {
	config := allocator.Config{BasePPN: 0x80000, Frames: 256}
	srv, err := allocator.New(config)
	require.NoError(t, err)
	mem := memory.NewPhysMemory(config.BasePPN, config.Frames, srv)
	var ret []*task.ControlBlock
	for i, priority := range priorities {
		tcb, err := task.New(uint64(i+1), "t", task.ProgramFunc(func(context.Context, task.Env) bool { return false }), mem, task.DefaultLayout(), priority)
		require.NoError(t, err)
		tcb.SetStatus(abi.StatusReady)
		ret = append(ret, tcb)
	}
	return ret
}

func TestService_Fetch(t *testing.T) {
	srv := New(DefaultConfig())
	assert.Nil(t, srv.Fetch(), "empty queue")

	tasks := newTasks(t, 16, 16)
	srv.Add(tasks[0])
	srv.Add(tasks[1])

	first := srv.Fetch()
	assert.Same(t, tasks[0], first, "ties go to queue order")
	assert.Equal(t, int64(255/16), first.Stride(), "stride advanced on selection")
	assert.Equal(t, 1, srv.Len())

	srv.Add(first)
	assert.Same(t, tasks[1], srv.Fetch())
}

func TestService_FetchSkipsNonReady(t *testing.T) {
	srv := New(DefaultConfig())
	tasks := newTasks(t, 8, 8)
	tasks[0].SetStatus(abi.StatusExited)
	srv.Add(tasks[0])
	srv.Add(tasks[1])
	assert.Same(t, tasks[1], srv.Fetch())
	assert.Nil(t, srv.Fetch(), "only a non-ready task left")
	assert.Equal(t, 1, srv.Len())
}

func TestService_Fairness(t *testing.T) {
	srv := New(DefaultConfig())
	tasks := newTasks(t, 2, 4)
	srv.Add(tasks[0])
	srv.Add(tasks[1])

	counts := map[*task.ControlBlock]int{}
	for i := 0; i < 3000; i++ {
		tcb := srv.Fetch()
		require.NotNil(t, tcb)
		counts[tcb]++
		srv.Add(tcb)
	}
	// passes are 127 and 63, so selections split 63:127 within one step
	high, low := counts[tasks[1]], counts[tasks[0]]
	assert.InDelta(t, 127.0/63.0, float64(high)/float64(low), 0.02)
	assert.Equal(t, 3000, high+low)
}

func TestService_Pass(t *testing.T) {
	srv := New(Config{})
	assert.Equal(t, int64(127), srv.Pass(2))
	assert.Equal(t, int64(127), srv.Pass(0), "clamped to the minimum priority")
	assert.Equal(t, int64(1), srv.Pass(255))
}
