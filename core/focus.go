package core

import "sync"

// FocusSource delivers host-window focus and blur signals. Registration
// returns a cancel func; the coordinator removes exactly the handlers it
// added, so registration and removal stay symmetric across teardown.
type FocusSource interface {
	OnFocus(handler func()) (cancel func())
	OnBlur(handler func()) (cancel func())
}

// focusCoordinator reacts to host-window focus changes for one session.
// Blur disables cursor blink unconditionally; the session does not need
// to be visible for the resource saving to apply. Focus re-enables blink
// and additionally refocuses the display, but only when the eligible
// predicate holds (visible, not exited, not spawn-error). The blink flag
// always matches the most recent event, however fast the window cycles.
type focusCoordinator struct {
	mu       sync.Mutex
	display  Display
	eligible func() bool
	cancels  []func()
	bound    bool
}

func newFocusCoordinator(display Display, eligible func() bool) *focusCoordinator {
	return &focusCoordinator{display: display, eligible: eligible}
}

// Bind registers the coordinator's handlers on the window source.
func (f *focusCoordinator) Bind(source FocusSource) {
	if source == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bound {
		return
	}
	f.bound = true
	f.cancels = append(f.cancels, source.OnBlur(f.handleBlur))
	f.cancels = append(f.cancels, source.OnFocus(f.handleFocus))
}

func (f *focusCoordinator) handleBlur() {
	f.mu.Lock()
	display := f.display
	f.mu.Unlock()
	if display != nil {
		display.SetCursorBlink(false)
	}
}

func (f *focusCoordinator) handleFocus() {
	f.mu.Lock()
	display := f.display
	eligible := f.eligible
	f.mu.Unlock()
	if display == nil {
		return
	}
	display.SetCursorBlink(true)
	if eligible != nil && eligible() {
		display.Focus()
	}
}

// Dispose removes the registered handlers. Safe to call more than once.
func (f *focusCoordinator) Dispose() {
	f.mu.Lock()
	cancels := f.cancels
	f.cancels = nil
	f.display = nil
	f.mu.Unlock()
	for _, cancel := range cancels {
		if cancel != nil {
			cancel()
		}
	}
}
