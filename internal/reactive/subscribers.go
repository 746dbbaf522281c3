package reactive

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// subscribers is an ordered listener list shared by Cell and Derived.
type subscribers[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	list   []subscription[T]
}

func (s *subscribers[T]) add(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.list = append(s.list, subscription[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subscribers[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.list {
		if sub.id == id {
			s.list = append(s.list[:i], s.list[i+1:]...)

			return
		}
	}
}

// notify calls every listener with v, in subscription order,
// on a snapshot taken under the read lock.
func (s *subscribers[T]) notify(v T) {
	s.mu.RLock()
	snapshot := make([]subscription[T], len(s.list))
	copy(snapshot, s.list)
	s.mu.RUnlock()

	for _, sub := range snapshot {
		sub.fn(v)
	}
}
