package schema

import "time"

// Theme carries the display colors the host wants applied. Values are
// opaque to the controller; they are forwarded to the display's setters.
type Theme struct {
	Name       string
	Background string
	Foreground string
}

// DisplayConfig configures the display widget created for a session.
type DisplayConfig struct {
	Theme       Theme
	FontFamily  string
	FontSize    int
	CursorBlink bool
	Scrollback  int
}

// SessionConfig describes one session to start.
type SessionConfig struct {
	ID      SessionID
	Cwd     string
	Tool    ToolType
	Cols    int
	Rows    int
	Display DisplayConfig
	// FrameInterval is the output-batching tick period. One display write
	// is issued per elapsed interval while output is pending.
	FrameInterval time.Duration
	// HostShortcuts is the allowlist of chords classified HostOwned by the
	// shortcut bypass filter. Everything else is TerminalOwned.
	HostShortcuts []KeyChord
}

// SpawnRequest is the process-manager spawn call payload.
type SpawnRequest struct {
	SessionID SessionID
	Cwd       string
	Tool      ToolType
	Cols      int
	Rows      int
}

// Defaults applied by NormalizeSessionConfig.
const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultCols          = 80
	DefaultRows          = 24
	DefaultScrollback    = 10000
)

// DefaultSpawnErrorMessage is recorded when a spawn failure carries no
// message of its own.
const DefaultSpawnErrorMessage = "failed to start terminal process"
