package tui

import "sync"

// FocusNotifier bridges window focus changes into the session focus
// coordinators. The embedding host calls NotifyFocus and NotifyBlur when
// the emulator window gains or loses focus; plain terminals rarely report
// focus, so without those calls every session simply keeps its blink.
type FocusNotifier struct {
	mu       sync.Mutex
	focusFns map[int]func()
	blurFns  map[int]func()
	next     int
}

// NewFocusNotifier creates an empty notifier.
func NewFocusNotifier() *FocusNotifier {
	return &FocusNotifier{
		focusFns: make(map[int]func()),
		blurFns:  make(map[int]func()),
	}
}

// OnFocus registers a focus handler and returns its cancel function.
func (n *FocusNotifier) OnFocus(handler func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.focusFns[id] = handler
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.focusFns, id)
	}
}

// OnBlur registers a blur handler and returns its cancel function.
func (n *FocusNotifier) OnBlur(handler func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.blurFns[id] = handler
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.blurFns, id)
	}
}

// NotifyFocus fires every focus handler.
func (n *FocusNotifier) NotifyFocus() {
	for _, fn := range n.snapshot(true) {
		fn()
	}
}

// NotifyBlur fires every blur handler.
func (n *FocusNotifier) NotifyBlur() {
	for _, fn := range n.snapshot(false) {
		fn()
	}
}

func (n *FocusNotifier) snapshot(focus bool) []func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	source := n.blurFns
	if focus {
		source = n.focusFns
	}
	fns := make([]func(), 0, len(source))
	for _, fn := range source {
		fns = append(fns, fn)
	}
	return fns
}
