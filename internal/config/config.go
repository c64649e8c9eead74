// Package config loads the applock configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/scandocs/applock/pkg/lock"
)

// FileName is the configuration file name inside the data directory.
const FileName = "applock.yaml"

// Store backend names.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

const fileMode = 0600

// Errors returned when the configuration file is unusable.
var (
	ErrNotFound = errors.New("config: configuration file not found")
	ErrInsecure = errors.New("config: configuration file has insecure permissions")
	ErrSymlink  = errors.New("config: configuration file is a symlink")
)

// Config is the on-disk configuration.
type Config struct {
	Version int    `yaml:"version"`
	Backend string `yaml:"backend"` // sqlite | bolt
	Timeout string `yaml:"timeout"` // immediate | 1m | 5m | 15m | 30m
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Version: 1,
		Backend: BackendSQLite,
		Timeout: lock.TimeoutImmediate.String(),
	}
}

// ParseTimeout converts the configured timeout spelling.
func (c Config) ParseTimeout() (lock.Timeout, error) {
	return lock.ParseTimeout(c.Timeout)
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Backend != BackendSQLite && c.Backend != BackendBolt {
		return fmt.Errorf("config: invalid backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendBolt)
	}
	if _, err := c.ParseTimeout(); err != nil {
		return err
	}
	return nil
}

// Load reads the configuration from dir. The file must be a regular file
// with 0600 permissions; anything looser could let another local user
// swap the timeout or backend under the lock engine.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("config: failed to stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	if perm := info.Mode().Perm(); perm != fileMode {
		return nil, fmt.Errorf("%w: %o (expected %o)", ErrInsecure, perm, fileMode)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to dir with 0600 permissions.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: failed to create directory: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, raw, fileMode); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// LoadOrDefault returns the configuration from dir, falling back to the
// defaults when no file exists.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.Is(err, ErrNotFound) {
		def := Default()
		return &def, nil
	}
	return cfg, err
}
