// Package exclusive provides a cell granting one borrower at a time.
// A second concurrent borrow is a programming error and panics instead of blocking.
package exclusive

import (
	"fmt"
	"sync"
)

// Cell guards a value of T.
type Cell[T any] struct {
	mu    sync.Mutex
	name  string
	value T
}

// New wraps value. name is reported when a re-entrant borrow panics.
func New[T any](name string, value T) *Cell[T] {
	return &Cell[T]{name: name, value: value}
}

// Borrow grants exclusive access until release is called.
func (c *Cell[T]) Borrow() (*T, func()) {
	if !c.mu.TryLock() {
		panic(fmt.Sprintf("exclusive: %v already borrowed", c.name))
	}
	released := false
	return &c.value, func() {
		if released {
			return
		}
		released = true
		c.mu.Unlock()
	}
}

// With runs fn with exclusive access; access ends when fn returns or panics.
func (c *Cell[T]) With(fn func(value *T)) {
	value, release := c.Borrow()
	defer release()
	fn(value)
}

// Get is With for callers that return a result.
func Get[T, R any](c *Cell[T], fn func(value *T) R) R {
	var ret R
	c.With(func(value *T) { ret = fn(value) })
	return ret
}
