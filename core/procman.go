package core

import (
	"context"

	"pkt.systems/termpane/schema"
)

// ProcessManager owns the backing pseudo-terminal processes. All calls are
// keyed by session id. OnRawData and OnExit deliver events for every
// session to every subscriber; consumers filter by id (the bus performs no
// per-session routing).
type ProcessManager interface {
	// Spawn starts the backing process. A non-nil error is the retriable
	// spawn-failure path; the session must not be wired to the buses.
	Spawn(ctx context.Context, req schema.SpawnRequest) (schema.SpawnInfo, error)
	Write(id schema.SessionID, data []byte) error
	Kill(id schema.SessionID) error
	Resize(id schema.SessionID, cols, rows int) error
	OnRawData(handler func(ev schema.OutputEvent)) (cancel func())
	OnExit(handler func(ev schema.ExitEvent)) (cancel func())
}
