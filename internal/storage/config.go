package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const appName = "gsurf"

// DefaultHomepage is loaded when neither the command line nor the config names a URL.
const DefaultHomepage = "gemini://geminiprotocol.net/"

// Config holds gsurf user configuration.
type Config struct {
	Homepage string `json:"homepage"`
	Theme    string `json:"theme"`
	LogLevel string `json:"log_level"`
	path     string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Homepage: DefaultHomepage,
		Theme:    "default",
		LogLevel: "info",
	}
}

// LoadConfig loads the configuration from the XDG config directory, writing the
// defaults there on first run.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(filepath.Join(xdg.ConfigHome, appName, "config.json"))
}

// LoadConfigFrom loads the configuration stored at path.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return &cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Homepage == "" {
		cfg.Homepage = DefaultHomepage
	}

	return &cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Level maps LogLevel onto a slog level. Unknown names mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DataDir returns the directory holding the database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns the directory holding the log file.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}
