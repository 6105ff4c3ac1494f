package ptyhost

import "sync"

// feed is a synchronous broadcast registry. Publish invokes every
// subscribed handler on the caller's goroutine, in steady subscription
// order, so delivery is lossless and ordered. Handlers must not block.
type feed[T any] struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(T)
	order    []int
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{handlers: make(map[int]func(T))}
}

// Subscribe registers a handler and returns its cancel function. Cancel
// is idempotent.
func (f *feed[T]) Subscribe(handler func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.handlers[id] = handler
	f.order = append(f.order, id)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

// Publish delivers the value to every live handler.
func (f *feed[T]) Publish(value T) {
	f.mu.Lock()
	handlers := make([]func(T), 0, len(f.handlers))
	for _, id := range f.order {
		if handler, ok := f.handlers[id]; ok {
			handlers = append(handlers, handler)
		}
	}
	f.mu.Unlock()
	for _, handler := range handlers {
		handler(value)
	}
}

func (f *feed[T]) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}
