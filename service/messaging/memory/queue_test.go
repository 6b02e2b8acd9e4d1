package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/strider/service/messaging"
)

type payload struct {
	PID  uint64
	Kind string
}

func TestQueue(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &payload{PID: 1, Kind: "exited"}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload{PID: 1, Kind: "exited"}, *message.T())
	assert.Equal(t, 0, queue.Size())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(nil))
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond
	queue := NewQueue[payload](config)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &payload{PID: 2}))
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err, attempt)
		require.NoError(t, message.Nack(nil))
	}
	assert.Eventually(t, func() bool { return queue.DLQSize() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_DropWhenFull(t *testing.T) {
	queue := NewQueue[payload](Config{QueueBuffer: 2, DropWhenFull: true})
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &payload{PID: 1}))
	require.NoError(t, queue.Publish(ctx, &payload{PID: 2}))
	assert.ErrorIs(t, queue.Publish(ctx, &payload{PID: 3}), messaging.ErrQueueFull)
	assert.Equal(t, uint64(1), queue.Dropped())
	assert.Equal(t, 2, queue.Size())
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const producers, perProducer = 8, 25

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &payload{PID: uint64(pid)}))
			}
		}(i)
	}
	consumed := 0
	for consumed < producers*perProducer {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NoError(t, message.Ack())
		consumed++
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &payload{}))

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.Error(t, err)
}
