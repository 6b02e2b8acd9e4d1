// Package idgen issues opaque task identifiers.
package idgen

import (
	"sync"

	"github.com/google/uuid"
)

var (
	mux       sync.RWMutex
	generator = func() string { return uuid.New().String() }
)

// New returns a new identifier.
func New() string {
	mux.RLock()
	defer mux.RUnlock()
	return generator()
}

// Use replaces the generator until the returned restore func is called.
func Use(fn func() string) (restore func()) {
	mux.Lock()
	previous := generator
	generator = fn
	mux.Unlock()
	return func() {
		mux.Lock()
		generator = previous
		mux.Unlock()
	}
}
