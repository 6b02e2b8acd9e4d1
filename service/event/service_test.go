package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/service/messaging"
	"github.com/viant/strider/service/messaging/memory"
)

func TestService_PublishListen(t *testing.T) {
	service := New(WithLogger(logger.Discard()))
	defer service.Close()

	var mux sync.Mutex
	var received []*Event[TaskEvent]
	SetListenerOf[TaskEvent](service, func(e *Event[TaskEvent]) error {
		mux.Lock()
		received = append(received, e)
		mux.Unlock()
		return nil
	})

	ctx := context.Background()
	require.NoError(t, Publish(ctx, service, &Context{PID: 1, EventType: TypeTaskCreated}, TaskEvent{Name: "a", To: "ready"}))
	require.NoError(t, Publish(ctx, service, &Context{PID: 1, EventType: TypeTaskExited}, TaskEvent{Name: "a", From: "running", To: "exited"}))

	assert.Eventually(t, func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(received) == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, TypeTaskExited, received[1].Context.EventType)
	assert.Equal(t, "exited", received[1].Data.To)
	assert.Same(t, PublisherOf[TaskEvent](service), PublisherOf[TaskEvent](service))
}

func TestService_ReplaceListener(t *testing.T) {
	service := New()
	first := make(chan string, 1)
	second := make(chan string, 1)
	SetListenerOf[TaskEvent](service, func(e *Event[TaskEvent]) error {
		first <- e.Data.Name
		return nil
	})
	SetListenerOf[TaskEvent](service, func(e *Event[TaskEvent]) error {
		second <- e.Data.Name
		return nil
	})
	require.NoError(t, Publish(context.Background(), service, &Context{}, TaskEvent{Name: "x"}))
	select {
	case name := <-second:
		assert.Equal(t, "x", name)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, first)
	service.Close()
}

func TestService_DropWhenFull(t *testing.T) {
	service := New(WithQueueConfig(func(string) memory.Config {
		return memory.Config{QueueBuffer: 1, DropWhenFull: true}
	}))
	ctx := context.Background()
	require.NoError(t, Publish(ctx, service, &Context{}, TaskEvent{}))
	assert.ErrorIs(t, Publish(ctx, service, &Context{}, TaskEvent{}), messaging.ErrQueueFull)
	dropped, deadLetters := StatsOf[TaskEvent](service)
	assert.Equal(t, uint64(1), dropped)
	assert.Equal(t, 0, deadLetters)
}

func TestService_HandlerRetry(t *testing.T) {
	testCases := []struct {
		description string
		failures    int32
		expectCalls int32
		expectDead  int
	}{
		{description: "recovers on retry", failures: 1, expectCalls: 2},
		{description: "dead lettered after retries", failures: 100, expectCalls: 3, expectDead: 1},
	}
	for _, testCase := range testCases {
		service := New(WithLogger(logger.Discard()), WithQueueConfig(func(string) memory.Config {
			return memory.Config{MaxRetries: 2, RetryDelay: time.Millisecond, DeadLetter: true, QueueBuffer: 4, DropWhenFull: true}
		}))
		var calls atomic.Int32
		SetListenerOf[TaskEvent](service, func(e *Event[TaskEvent]) error {
			if calls.Add(1) <= testCase.failures {
				return errors.New("listener unavailable")
			}
			return nil
		})
		require.NoError(t, Publish(context.Background(), service, &Context{PID: 3}, TaskEvent{Name: "retry"}), testCase.description)

		assert.Eventually(t, func() bool { return calls.Load() == testCase.expectCalls }, time.Second, time.Millisecond, testCase.description)
		assert.Eventually(t, func() bool {
			_, deadLetters := StatsOf[TaskEvent](service)
			return deadLetters == testCase.expectDead
		}, time.Second, time.Millisecond, testCase.description)
		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, testCase.expectCalls, calls.Load(), testCase.description)
		service.Close()
	}
}
