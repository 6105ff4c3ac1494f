package schema

// SessionID identifies one terminal session. It is the stable key used to
// correlate process-manager calls and bus events for the lifetime of the
// host process.
type SessionID string

// ToolType identifies the kind of backing process a session runs.
type ToolType string

const (
	// ToolShell runs the user's login shell.
	ToolShell ToolType = "shell"
)

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	// StateIdle means the session exists but start has not been invoked.
	StateIdle SessionState = "idle"
	// StateSpawning means a spawn request is in flight.
	StateSpawning SessionState = "spawning"
	// StateRunning means the backing process is alive.
	StateRunning SessionState = "running"
	// StateExited means the backing process has terminated.
	StateExited SessionState = "exited"
	// StateSpawnError means the spawn request failed; retriable.
	StateSpawnError SessionState = "spawn_error"
)

// Alive reports whether the session still has (or may get) a backing process.
func (s SessionState) Alive() bool {
	return s == StateSpawning || s == StateRunning
}

// RendererMode indicates which rendering path the display is on.
type RendererMode string

const (
	// RendererAccelerated means the GPU-backed addon is active.
	RendererAccelerated RendererMode = "accelerated"
	// RendererFallback means the display renders on its default path.
	// The transition to fallback is irreversible for a display's lifetime.
	RendererFallback RendererMode = "fallback"
)
