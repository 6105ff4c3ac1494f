package core

import "testing"

func TestFocusBlurDisablesBlinkRegardlessOfVisibility(t *testing.T) {
	display := &fakeDisplay{}
	window := newFakeWindow()
	f := newFocusCoordinator(display, func() bool { return false })
	f.Bind(window)

	window.blur()
	blink, set := display.blinkValue()
	if !set || blink {
		t.Fatalf("expected blink disabled on blur, got set=%v blink=%v", set, blink)
	}
	if display.focusCount != 0 {
		t.Fatalf("blur must not move focus")
	}
}

func TestFocusRestoresBlinkAndFocusesEligibleSession(t *testing.T) {
	display := &fakeDisplay{}
	window := newFakeWindow()
	f := newFocusCoordinator(display, func() bool { return true })
	f.Bind(window)

	window.blur()
	window.focus()
	blink, _ := display.blinkValue()
	if !blink {
		t.Fatalf("expected blink restored on focus")
	}
	if display.focusCount != 1 {
		t.Fatalf("expected one focus call, got %d", display.focusCount)
	}
}

func TestFocusSkipsIneligibleSession(t *testing.T) {
	display := &fakeDisplay{}
	window := newFakeWindow()
	f := newFocusCoordinator(display, func() bool { return false })
	f.Bind(window)

	window.focus()
	blink, _ := display.blinkValue()
	if !blink {
		t.Fatalf("blink is restored even when focus is not")
	}
	if display.focusCount != 0 {
		t.Fatalf("expected no focus call for ineligible session")
	}
}

func TestFocusRapidCyclesTrackLatestEvent(t *testing.T) {
	display := &fakeDisplay{}
	window := newFakeWindow()
	f := newFocusCoordinator(display, func() bool { return true })
	f.Bind(window)

	for i := 0; i < 5; i++ {
		window.blur()
		window.focus()
	}
	window.blur()
	blink, _ := display.blinkValue()
	if blink {
		t.Fatalf("expected blink to match the most recent event (blur)")
	}
}

func TestFocusDisposeRemovesExactlyItsHandlers(t *testing.T) {
	display := &fakeDisplay{}
	window := newFakeWindow()
	f := newFocusCoordinator(display, func() bool { return true })
	f.Bind(window)
	if window.handlerCount() != 2 {
		t.Fatalf("expected two handlers registered, got %d", window.handlerCount())
	}

	f.Dispose()
	if window.handlerCount() != 0 {
		t.Fatalf("expected symmetric removal, %d handlers left", window.handlerCount())
	}

	// Events after dispose must not reach the display.
	window.blur()
	if _, set := display.blinkValue(); set {
		t.Fatalf("expected no blink change after dispose")
	}
	f.Dispose()
}

func TestFocusBindTwiceRegistersOnce(t *testing.T) {
	window := newFakeWindow()
	f := newFocusCoordinator(&fakeDisplay{}, nil)
	f.Bind(window)
	f.Bind(window)
	if window.handlerCount() != 2 {
		t.Fatalf("expected two handlers, got %d", window.handlerCount())
	}
}
