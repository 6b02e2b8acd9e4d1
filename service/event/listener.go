package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viant/strider/service/messaging"
)

// Handler processes one event; an error sends the event back for retry.
type Handler[T any] func(*Event[T]) error

// Listener delivers published events to handler on its own goroutine.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   Handler[T]
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

func NewListener[T any](publisher *Publisher[T], handler Handler[T], logger *slog.Logger) *Listener[T] {
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins consuming; it must be called once.
func (l *Listener[T]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.Consume(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil || msg == nil {
				l.logger.Warn("failed to consume event", "error", err)
				continue
			}
			l.deliver(msg)
		}
	}()
}

func (l *Listener[T]) deliver(msg messaging.Message[Event[T]]) {
	if err := l.handler(msg.T()); err != nil {
		l.logger.Warn("event handler failed", "error", err)
		if err = msg.Nack(err); err != nil {
			l.logger.Warn("failed to nack event", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		l.logger.Warn("failed to ack event", "error", err)
	}
}

// Stop ends consumption and waits for the in-flight handler to return.
func (l *Listener[T]) Stop() {
	l.once.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
	})
	<-l.done
}
