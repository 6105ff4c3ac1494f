package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("expected version %d, got %d", CurrentConfigVersion, cfg.ConfigVersion)
	}
	if cfg.Session.FrameIntervalMS != 16 {
		t.Fatalf("expected 16ms frame interval, got %d", cfg.Session.FrameIntervalMS)
	}
	if len(cfg.Shortcuts.Host) == 0 {
		t.Fatalf("expected default shortcut allowlist")
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 99
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsMissingConfigVersion(t *testing.T) {
	path := writeConfig(t, `
shell:
  command: /bin/zsh
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRejectsNonPositiveFrameInterval(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
session:
  frame_interval_ms: 0
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "frame_interval_ms") {
		t.Fatalf("expected frame interval error, got %v", err)
	}
}

func TestLoadRejectsMalformedShortcut(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
shortcuts:
  host:
    - cmd+
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "shortcuts.host") {
		t.Fatalf("expected shortcut error, got %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
shell:
  command: /bin/zsh
  cwd: /work
session:
  frame_interval_ms: 33
  cols: 132
display:
  cursor_blink: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Shell.Command != "/bin/zsh" || cfg.Shell.Cwd != "/work" {
		t.Fatalf("unexpected shell config: %+v", cfg.Shell)
	}
	if cfg.Session.FrameIntervalMS != 33 || cfg.Session.Cols != 132 {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Session.Rows != 24 {
		t.Fatalf("expected default rows preserved, got %d", cfg.Session.Rows)
	}
	if cfg.Display.CursorBlink {
		t.Fatalf("expected cursor_blink override")
	}
}

func TestSessionConfigForCarriesSettings(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Session.FrameIntervalMS = 33
	sess, err := cfg.SessionConfigFor("tab1")
	if err != nil {
		t.Fatalf("session config: %v", err)
	}
	if sess.ID != "tab1" {
		t.Fatalf("expected session id carried, got %q", sess.ID)
	}
	if sess.FrameInterval != 33*time.Millisecond {
		t.Fatalf("expected 33ms frame interval, got %v", sess.FrameInterval)
	}
	if len(sess.HostShortcuts) != len(cfg.Shortcuts.Host) {
		t.Fatalf("expected %d chords, got %d", len(cfg.Shortcuts.Host), len(sess.HostShortcuts))
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
