package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scandocs/applock/pkg/lock"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()

	want := Config{Version: 1, Backend: BackendBolt, Timeout: "15m"}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *got != want {
		t.Errorf("Load = %+v, want %+v", *got, want)
	}

	timeout, err := got.ParseTimeout()
	if err != nil {
		t.Fatalf("ParseTimeout failed: %v", err)
	}
	if timeout != lock.Timeout15Minutes {
		t.Errorf("expected 15m timeout, got %v", timeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("expected default backend sqlite, got %q", cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestLoadRejectsLoosePermissions(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Default()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := os.Chmod(filepath.Join(dir, FileName), 0644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrInsecure) {
		t.Errorf("expected ErrInsecure, got %v", err)
	}
}

func TestLoadRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.yaml")
	if err := os.WriteFile(target, []byte("version: 1\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrSymlink) {
		t.Errorf("expected ErrSymlink, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad backend", "version: 1\nbackend: redis\ntimeout: immediate\n"},
		{"bad timeout", "version: 1\nbackend: sqlite\ntimeout: 2h\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if _, err := Load(dir); err == nil {
				t.Error("invalid configuration accepted")
			}
		})
	}
}

func TestLoadDefaultsEmptyBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("version: 1\ntimeout: 5m\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("expected sqlite default, got %q", cfg.Backend)
	}
}
