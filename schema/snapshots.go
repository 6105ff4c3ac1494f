package schema

// SessionSnapshot is a transport-friendly view of one session's state.
type SessionSnapshot struct {
	ID           SessionID
	State        SessionState
	ExitCode     *int
	SpawnError   string
	RendererMode RendererMode
	Visible      bool
	HasFocus     bool
}
