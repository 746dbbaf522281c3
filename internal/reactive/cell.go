package reactive

import "sync"

// Cell is an observable value container.
type Cell[T comparable] struct {
	// mu protects value.
	mu    sync.RWMutex
	value T

	subs subscribers[T]
}

// NewCell creates a cell holding initial.
func NewCell[T comparable](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.value
}

// Set stores v and notifies subscribers when it differs from the current value.
// It reports whether the value changed.
func (c *Cell[T]) Set(v T) bool {
	c.mu.Lock()

	if c.value == v {
		c.mu.Unlock()

		return false
	}

	c.value = v
	c.mu.Unlock()

	c.subs.notify(v)

	return true
}

// Subscribe registers fn to be called with every new value.
// The returned function removes the subscription; calling it twice is harmless.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	return c.subs.add(fn)
}
