package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for wb, stored in ~/.wb/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// DataDir holds board.db. Empty = ~/.wb.
	DataDir string `json:"data_dir"`
	// Timezone is the IANA timezone for week grouping and printed times
	// (e.g. "Europe/Berlin"). Empty = the system's local zone.
	Timezone string `json:"timezone"`
	// RefreshInterval is how often `wb watch` redraws, as a Go duration.
	RefreshInterval string `json:"refresh_interval"`
	// ExportDir is where `wb export --save` writes its report.
	// Empty = current directory.
	ExportDir string `json:"export_dir"`
}

// DefaultRefreshInterval matches the live-duration refresh of the board view.
const DefaultRefreshInterval = "30s"

// dbFileName is the local key-value database inside DataDir.
const dbFileName = "board.db"

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		RefreshInterval: DefaultRefreshInterval,
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// wb configuration – ~/.wb/config.json
//
// All settings are optional; the built-in defaults work out of the box.
{
  // Directory holding board.db, the local task store.
  // Leave empty to use ~/.wb.
  "data_dir": "",

  // IANA timezone used to group the export by week and to print times,
  // e.g. "Europe/Berlin". Leave empty to use the system's local zone.
  "timezone": "",

  // How often 'wb watch' redraws running durations (Go duration syntax).
  "refresh_interval": "30s",

  // Directory 'wb export --save' writes work-summary-YYYY-MM-DD.md into.
  // Leave empty to use the current directory.
  "export_dir": ""
}
`

// BaseDir returns the default root directory (~/.wb).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wb"), nil
}

// DefaultPath returns the path to ~/.wb/config.json.
func DefaultPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config at path, or ~/.wb/config.json when path is empty,
// creating it with annotated defaults on first run.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return defaultConfig(), err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.RefreshInterval == "" {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	if err := cfg.validate(); err != nil {
		return defaultConfig(), fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Interval parses RefreshInterval.
func (c Config) Interval() (time.Duration, error) {
	if c.RefreshInterval == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("refresh_interval %q: %w", c.RefreshInterval, err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("refresh_interval %q must be at least 1s", c.RefreshInterval)
	}
	return d, nil
}

// DBPath returns the location of the local database.
func (c Config) DBPath() (string, error) {
	dir := c.DataDir
	if dir == "" {
		base, err := BaseDir()
		if err != nil {
			return "", err
		}
		dir = base
	}
	return filepath.Join(dir, dbFileName), nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
