package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/termpane/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int             `mapstructure:"config_version" yaml:"config_version"`
	Shell         ShellConfig     `mapstructure:"shell" yaml:"shell"`
	Session       SessionConfig   `mapstructure:"session" yaml:"session"`
	Display       DisplayConfig   `mapstructure:"display" yaml:"display"`
	Shortcuts     ShortcutsConfig `mapstructure:"shortcuts" yaml:"shortcuts"`
	Logging       LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ShellConfig selects the program each session runs.
type ShellConfig struct {
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args"`
	Env     map[string]string `mapstructure:"env" yaml:"env"`
	Cwd     string            `mapstructure:"cwd" yaml:"cwd"`
}

// SessionConfig controls per-session behavior.
type SessionConfig struct {
	FrameIntervalMS int `mapstructure:"frame_interval_ms" yaml:"frame_interval_ms"`
	Cols            int `mapstructure:"cols" yaml:"cols"`
	Rows            int `mapstructure:"rows" yaml:"rows"`
}

// DisplayConfig controls terminal widget appearance.
type DisplayConfig struct {
	Theme       string `mapstructure:"theme" yaml:"theme"`
	FontFamily  string `mapstructure:"font_family" yaml:"font_family"`
	FontSize    int    `mapstructure:"font_size" yaml:"font_size"`
	CursorBlink bool   `mapstructure:"cursor_blink" yaml:"cursor_blink"`
	Scrollback  int    `mapstructure:"scrollback" yaml:"scrollback"`
}

// ShortcutsConfig is the host shortcut allowlist. Everything not listed
// here reaches the shell, including plain-Ctrl control sequences.
type ShortcutsConfig struct {
	Host []string `mapstructure:"host" yaml:"host"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	NoColor bool `mapstructure:"no_color" yaml:"no_color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Shell: ShellConfig{
			Command: "",
			Args:    []string{},
			Env:     map[string]string{},
			Cwd:     "",
		},
		Session: SessionConfig{
			FrameIntervalMS: int(schema.DefaultFrameInterval / time.Millisecond),
			Cols:            schema.DefaultCols,
			Rows:            schema.DefaultRows,
		},
		Display: DisplayConfig{
			Theme:       "dark",
			FontFamily:  "monospace",
			FontSize:    14,
			CursorBlink: true,
			Scrollback:  schema.DefaultScrollback,
		},
		Shortcuts: ShortcutsConfig{
			Host: []string{
				"cmd+t",
				"cmd+w",
				"cmd+f",
				"cmd+k",
				"cmd+shift+[",
				"cmd+shift+]",
			},
		},
		Logging: LoggingConfig{
			NoColor: true,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".termpane", "config.yaml"), nil
}

// HostChords parses the configured shortcut allowlist.
func (c Config) HostChords() ([]schema.KeyChord, error) {
	return schema.ParseChords(c.Shortcuts.Host)
}

// SessionConfigFor builds a session config for one session id.
func (c Config) SessionConfigFor(id schema.SessionID) (schema.SessionConfig, error) {
	chords, err := c.HostChords()
	if err != nil {
		return schema.SessionConfig{}, err
	}
	return schema.NormalizeSessionConfig(schema.SessionConfig{
		ID:   id,
		Cwd:  c.Shell.Cwd,
		Tool: schema.ToolShell,
		Cols: c.Session.Cols,
		Rows: c.Session.Rows,
		Display: schema.DisplayConfig{
			Theme:       schema.Theme{Name: c.Display.Theme},
			FontFamily:  c.Display.FontFamily,
			FontSize:    c.Display.FontSize,
			CursorBlink: c.Display.CursorBlink,
			Scrollback:  c.Display.Scrollback,
		},
		FrameInterval: time.Duration(c.Session.FrameIntervalMS) * time.Millisecond,
		HostShortcuts: chords,
	})
}
