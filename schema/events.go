package schema

// OutputEvent carries one chunk of raw process output. The raw-data bus is
// global: every subscriber receives events for every session and filters by
// SessionID. Data is the exact byte sequence read from the process,
// including control characters; consumers must not modify it.
type OutputEvent struct {
	SessionID SessionID
	Data      []byte
}

// ExitEvent reports that a session's backing process terminated. The exit
// bus is global in the same way the raw-data bus is.
type ExitEvent struct {
	SessionID SessionID
	Code      int
}

// SpawnInfo describes a successful spawn.
type SpawnInfo struct {
	SessionID SessionID
	PID       int
}

// SessionEventType identifies host-facing session notifications.
type SessionEventType string

const (
	// SessionSpawned fires once after a successful spawn, strictly before
	// the controller subscribes to the output and exit buses.
	SessionSpawned SessionEventType = "spawned"
	// SessionExited fires when the backing process terminates.
	SessionExited SessionEventType = "exited"
	// SessionCloseRequested fires for every keystroke delivered to a
	// session whose process has exited. Hosts may ignore duplicates.
	SessionCloseRequested SessionEventType = "close_requested"
)

// SessionEvent is the host-facing notification shape.
type SessionEvent struct {
	Type      SessionEventType
	SessionID SessionID
	ExitCode  int
}
