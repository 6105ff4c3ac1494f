package core

import (
	"testing"

	"pkt.systems/termpane/schema"
)

func defaultAllowlist(t *testing.T) []schema.KeyChord {
	t.Helper()
	chords, err := schema.ParseChords([]string{"cmd+t", "cmd+w", "cmd+f", "cmd+k", "cmd+shift+]"})
	if err != nil {
		t.Fatalf("parse allowlist: %v", err)
	}
	return chords
}

func TestClassifyPlainCtrlSequencesStayTerminalOwned(t *testing.T) {
	allowlist := defaultAllowlist(t)
	for _, key := range []string{"c", "d", "l", "r", "p", "n"} {
		ev := schema.KeyEvent{Key: key, Ctrl: true}
		if got := Classify(ev, allowlist); got != schema.TerminalOwned {
			t.Fatalf("expected ctrl+%s terminal-owned, got %q", key, got)
		}
	}
}

func TestClassifyAllowlistedChordIsHostOwned(t *testing.T) {
	allowlist := defaultAllowlist(t)
	ev := schema.KeyEvent{Key: "t", Meta: true}
	if got := Classify(ev, allowlist); got != schema.HostOwned {
		t.Fatalf("expected cmd+t host-owned, got %q", got)
	}
}

func TestClassifyCtrlMatchesCommandChords(t *testing.T) {
	// Chords written with "cmd" accept Ctrl as the command modifier, so
	// the same shortcut table works on every platform.
	allowlist := defaultAllowlist(t)
	ev := schema.KeyEvent{Key: "f", Ctrl: true}
	if got := Classify(ev, allowlist); got != schema.HostOwned {
		t.Fatalf("expected ctrl+f to match cmd+f, got %q", got)
	}
}

func TestClassifyModifierMismatchFallsThrough(t *testing.T) {
	allowlist := defaultAllowlist(t)
	cases := []schema.KeyEvent{
		{Key: "t"},
		{Key: "t", Alt: true},
		{Key: "t", Meta: true, Alt: true},
		{Key: "]", Meta: true},
		{Key: "x", Meta: true},
	}
	for _, ev := range cases {
		if got := Classify(ev, allowlist); got != schema.TerminalOwned {
			t.Fatalf("expected %+v terminal-owned, got %q", ev, got)
		}
	}
}

func TestClassifyEmptyAllowlistPassesEverything(t *testing.T) {
	ev := schema.KeyEvent{Key: "w", Meta: true}
	if got := Classify(ev, nil); got != schema.TerminalOwned {
		t.Fatalf("expected terminal-owned with empty allowlist, got %q", got)
	}
}
