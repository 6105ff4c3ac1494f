package core

import "pkt.systems/termpane/schema"

// Classify decides whether a key event belongs to the host application or
// to the terminal. It is a pure function of the event and the allowlist:
// an event matching any allowlisted chord is HostOwned, everything else is
// TerminalOwned and passes through untouched. That includes the plain-Ctrl
// sequences shells depend on (interrupt, end-of-file, clear-screen,
// reverse-search, history). The filter knows nothing about session
// state and behaves identically in every lifecycle phase.
func Classify(ev schema.KeyEvent, allowlist []schema.KeyChord) schema.Ownership {
	for _, chord := range allowlist {
		if chord.Matches(ev) {
			return schema.HostOwned
		}
	}
	return schema.TerminalOwned
}
