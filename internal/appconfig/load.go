package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("shell.command", cfg.Shell.Command)
	v.SetDefault("shell.args", cfg.Shell.Args)
	v.SetDefault("shell.env", cfg.Shell.Env)
	v.SetDefault("shell.cwd", cfg.Shell.Cwd)
	v.SetDefault("session.frame_interval_ms", cfg.Session.FrameIntervalMS)
	v.SetDefault("session.cols", cfg.Session.Cols)
	v.SetDefault("session.rows", cfg.Session.Rows)
	v.SetDefault("display.theme", cfg.Display.Theme)
	v.SetDefault("display.font_family", cfg.Display.FontFamily)
	v.SetDefault("display.font_size", cfg.Display.FontSize)
	v.SetDefault("display.cursor_blink", cfg.Display.CursorBlink)
	v.SetDefault("display.scrollback", cfg.Display.Scrollback)
	v.SetDefault("shortcuts.host", cfg.Shortcuts.Host)
	v.SetDefault("logging.no_color", cfg.Logging.NoColor)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if os.IsNotExist(err) {
				err = nil
			} else {
				return Config{}, err
			}
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.Session.FrameIntervalMS <= 0 {
		return fmt.Errorf("session.frame_interval_ms must be positive, got %d", cfg.Session.FrameIntervalMS)
	}
	if cfg.Session.Cols <= 0 || cfg.Session.Rows <= 0 {
		return fmt.Errorf("session.cols and session.rows must be positive, got %dx%d", cfg.Session.Cols, cfg.Session.Rows)
	}
	if cfg.Display.Scrollback < 0 {
		return fmt.Errorf("display.scrollback must not be negative, got %d", cfg.Display.Scrollback)
	}
	if _, err := cfg.HostChords(); err != nil {
		return fmt.Errorf("shortcuts.host: %w", err)
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Shell.Command = expandEnv(cfg.Shell.Command)
	cfg.Shell.Cwd = expandEnv(cfg.Shell.Cwd)
	for key, value := range cfg.Shell.Env {
		cfg.Shell.Env[key] = expandEnv(value)
	}
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
