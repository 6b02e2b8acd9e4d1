package event

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/viant/strider/internal/logger"
	"github.com/viant/strider/service/messaging"
	"github.com/viant/strider/service/messaging/memory"
)

type Option func(s *Service)

// WithQueueConfig sets the memory queue configuration per event type name
func WithQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.newQueueConfig = newConfig
	}
}

// WithLogger sets the logger used by listeners
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service hands out one publisher and at most one listener per payload type.
type Service struct {
	publishers     map[reflect.Type]any
	listeners      map[reflect.Type]stopper
	mux            sync.RWMutex
	logger         *slog.Logger
	newQueueConfig func(name string) memory.Config
}

type stopper interface{ Stop() }

// Close stops every listener.
func (s *Service) Close() {
	s.mux.Lock()
	listeners := s.listeners
	s.listeners = map[reflect.Type]stopper{}
	s.mux.Unlock()
	for _, listener := range listeners {
		listener.Stop()
	}
}

func New(opts ...Option) *Service {
	ret := &Service{
		publishers: make(map[reflect.Type]any),
		listeners:  make(map[reflect.Type]stopper),
		newQueueConfig: func(string) memory.Config {
			config := memory.DefaultConfig()
			config.DropWhenFull = true
			return config
		},
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logger.OrDefault(ret.logger)
	return ret
}

func keyOf[T any]() reflect.Type {
	rType := reflect.TypeOf((*T)(nil)).Elem()
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// QueueOf creates a queue for the named event type
func QueueOf[T any](s *Service, name string) messaging.Queue[T] {
	return memory.NewQueue[T](s.newQueueConfig(name))
}

// PublisherOf returns the publisher for T
func PublisherOf[T any](s *Service) *Publisher[T] {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.publishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T])
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.publishers[key]; ok {
		return ret.(*Publisher[T])
	}
	publisher := NewPublisher[T](QueueOf[Event[T]](s, key.String()))
	s.publishers[key] = publisher
	return publisher
}

// Publish publishes data of type T
func Publish[T any](ctx context.Context, s *Service, eventContext *Context, data T) error {
	return PublisherOf[T](s).Publish(ctx, NewEvent(eventContext, data))
}

// StatsOf returns the dropped and dead-lettered event counts for T
func StatsOf[T any](s *Service) (dropped uint64, deadLetters int) {
	return PublisherOf[T](s).Stats()
}

// SetListenerOf replaces the listener for T
func SetListenerOf[T any](s *Service, handler Handler[T]) {
	key := keyOf[T]()
	publisher := PublisherOf[T](s)
	s.mux.Lock()
	previous, ok := s.listeners[key]
	delete(s.listeners, key)
	s.mux.Unlock()
	if ok {
		previous.Stop()
	}
	listener := NewListener[T](publisher, handler, s.logger)
	listener.Start()
	s.mux.Lock()
	s.listeners[key] = listener
	s.mux.Unlock()
}
