package schema

import (
	"fmt"
	"strings"
)

// Ownership is the classification outcome for one key event.
type Ownership string

const (
	// HostOwned keys are handled by the embedding application and must
	// never reach the backing shell.
	HostOwned Ownership = "host"
	// TerminalOwned keys pass through to the backing shell untouched.
	TerminalOwned Ownership = "terminal"
)

// KeyEvent is the normalized key event handed to the shortcut filter.
// Key is a lowercase key name ("f", "1", "tab", "left", ...).
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// KeyChord is one allowlisted (modifier-set, key) combination. Command is
// the host's primary modifier: it matches the platform command key and,
// deliberately, a bare Ctrl on keyboards without one. That equivalence can
// shadow a shell's native Ctrl binding for the same letter; the trade-off
// is accepted and kept configurable rather than hard-coded.
type KeyChord struct {
	Command bool
	Shift   bool
	Alt     bool
	Key     string
}

// Matches reports whether the event triggers this chord.
func (c KeyChord) Matches(ev KeyEvent) bool {
	if !strings.EqualFold(c.Key, ev.Key) {
		return false
	}
	if c.Shift != ev.Shift || c.Alt != ev.Alt {
		return false
	}
	if c.Command {
		return ev.Meta || ev.Ctrl
	}
	return !ev.Meta && !ev.Ctrl
}

// String renders the chord in "cmd+shift+f" form.
func (c KeyChord) String() string {
	parts := make([]string, 0, 4)
	if c.Command {
		parts = append(parts, "cmd")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// ParseChord parses "cmd+shift+f" style chord strings. "ctrl" is accepted
// as an alias for "cmd" (see the Command field equivalence).
func ParseChord(s string) (KeyChord, error) {
	var chord KeyChord
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 {
		return chord, fmt.Errorf("empty chord")
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		last := i == len(parts)-1
		switch part {
		case "cmd", "command", "ctrl", "control":
			if last {
				return chord, fmt.Errorf("chord %q has no key", s)
			}
			chord.Command = true
		case "shift":
			if last {
				return chord, fmt.Errorf("chord %q has no key", s)
			}
			chord.Shift = true
		case "alt", "option":
			if last {
				return chord, fmt.Errorf("chord %q has no key", s)
			}
			chord.Alt = true
		default:
			if !last {
				return chord, fmt.Errorf("chord %q: unknown modifier %q", s, part)
			}
			if part == "" {
				return chord, fmt.Errorf("chord %q has no key", s)
			}
			chord.Key = part
		}
	}
	if chord.Key == "" {
		return chord, fmt.Errorf("chord %q has no key", s)
	}
	return chord, nil
}

// ParseChords parses a list of chord strings.
func ParseChords(specs []string) ([]KeyChord, error) {
	chords := make([]KeyChord, 0, len(specs))
	for _, spec := range specs {
		chord, err := ParseChord(spec)
		if err != nil {
			return nil, err
		}
		chords = append(chords, chord)
	}
	return chords, nil
}
