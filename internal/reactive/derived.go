package reactive

import "sync"

// Derived holds a value computed from a source cell.
// It has no setter: the only way to change it is to change the source.
type Derived[T comparable] struct {
	mu    sync.RWMutex
	value T

	// recompute reads the source and returns the fresh derived value.
	recompute func() T

	subs subscribers[T]
}

// NewDerived creates a value that tracks compute(source) on every source change.
func NewDerived[S, T comparable](source *Cell[S], compute func(S) T) *Derived[T] {
	d := &Derived[T]{
		recompute: func() T { return compute(source.Get()) },
	}

	d.value = d.recompute()

	// The notified value is ignored on purpose: recomputing from the source
	// means the last notification always lands on the latest value, even when
	// writers race.
	source.Subscribe(func(S) { d.refresh() })

	// A write may have happened between the first computation and Subscribe.
	d.refresh()

	return d
}

// Get returns the current derived value.
func (d *Derived[T]) Get() T {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.value
}

// Subscribe registers fn to be called whenever the derived value changes.
func (d *Derived[T]) Subscribe(fn func(T)) func() {
	return d.subs.add(fn)
}

func (d *Derived[T]) refresh() {
	d.mu.Lock()

	v := d.recompute()
	if d.value == v {
		d.mu.Unlock()

		return
	}

	d.value = v
	d.mu.Unlock()

	d.subs.notify(v)
}
