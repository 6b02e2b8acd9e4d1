package event

import (
	"context"

	"github.com/viant/strider/service/messaging"
)

type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	return p.queue.Publish(ctx, event)
}

// Consume blocks for the next event; the caller settles it with Ack or Nack.
func (p *Publisher[T]) Consume(ctx context.Context) (messaging.Message[Event[T]], error) {
	return p.queue.Consume(ctx)
}

// Stats returns the number of dropped and dead-lettered events when the
// queue keeps such counters.
func (p *Publisher[T]) Stats() (dropped uint64, deadLetters int) {
	if counter, ok := p.queue.(queueStats); ok {
		return counter.Dropped(), counter.DLQSize()
	}
	return 0, 0
}

type queueStats interface {
	Dropped() uint64
	DLQSize() int
}
