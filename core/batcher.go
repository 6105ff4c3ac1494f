package core

import (
	"sync"
	"time"

	"pkt.systems/termpane/schema"
)

// FrameScheduler provides the render-tick boundary used to coalesce
// output. Schedule runs fn once on the next tick and returns a cancel
// func; cancel after the tick fired is a no-op.
type FrameScheduler interface {
	Schedule(fn func()) (cancel func())
}

// NewFrameScheduler returns a scheduler that ticks after the given
// interval, the module's stand-in for an animation-frame callback.
func NewFrameScheduler(interval time.Duration) FrameScheduler {
	if interval <= 0 {
		interval = schema.DefaultFrameInterval
	}
	return intervalScheduler{interval: interval}
}

type intervalScheduler struct {
	interval time.Duration
}

func (s intervalScheduler) Schedule(fn func()) func() {
	timer := time.AfterFunc(s.interval, fn)
	return func() { timer.Stop() }
}

// outputBatcher coalesces raw output chunks for one session into a single
// display write per tick. Chunks are concatenated in arrival order and
// never modified; a chunk is never split across writes. The batcher is fed
// from the global raw-data bus, so events carrying a foreign session id
// are discarded at the enqueue boundary.
type outputBatcher struct {
	id    schema.SessionID
	sched FrameScheduler
	write func(data []byte)

	mu         sync.Mutex
	pending    []byte
	cancelTick func()
	closed     bool
}

func newOutputBatcher(id schema.SessionID, sched FrameScheduler, write func(data []byte)) *outputBatcher {
	return &outputBatcher{id: id, sched: sched, write: write}
}

// Enqueue buffers one chunk for the next tick. The first chunk after a
// flush arms the tick; later chunks ride along.
func (b *outputBatcher) Enqueue(ev schema.OutputEvent) {
	if ev.SessionID != b.id || len(ev.Data) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.pending = append(b.pending, ev.Data...)
	if b.cancelTick == nil {
		b.cancelTick = b.sched.Schedule(b.flush)
	}
}

func (b *outputBatcher) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *outputBatcher) flushLocked() {
	b.cancelTick = nil
	if len(b.pending) == 0 {
		return
	}
	data := b.pending
	b.pending = nil
	// The write happens under the lock so a chunk arriving mid-flush
	// cannot be reordered ahead of the batch being written.
	b.write(data)
}

// Flush writes anything pending immediately, without waiting for the tick.
func (b *outputBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelTick != nil {
		b.cancelTick()
	}
	b.flushLocked()
}

// Close cancels the pending tick and synchronously flushes whatever
// accumulated since the last one, so teardown never loses output. Further
// enqueues are dropped.
func (b *outputBatcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.cancelTick != nil {
		b.cancelTick()
	}
	b.flushLocked()
}
