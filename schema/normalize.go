package schema

import "strings"

// NormalizeSessionConfig validates a session config and applies defaults.
func NormalizeSessionConfig(cfg SessionConfig) (SessionConfig, error) {
	if strings.TrimSpace(string(cfg.ID)) == "" {
		return SessionConfig{}, ErrInvalidSessionID
	}
	if cfg.Tool == "" {
		cfg.Tool = ToolShell
	}
	if cfg.Cols <= 0 {
		cfg.Cols = DefaultCols
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Display.Scrollback <= 0 {
		cfg.Display.Scrollback = DefaultScrollback
	}
	return cfg, nil
}
