package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
log:
  level: debug
  file: /tmp/chat.log
store:
  driver: badger
  path: ./data
chat:
  peer_name: Sam
  seed: false
  animation_delay: 250ms
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// TestLoad_File verifies that Load correctly unmarshals every section.
func TestLoad_File(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/chat.log" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Store.Driver != "badger" || cfg.Store.Path != "./data" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Chat.PeerName != "Sam" || cfg.Chat.Seed {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
	if cfg.Chat.AnimationDelay != 250*time.Millisecond {
		t.Fatalf("unexpected animation delay: %v", cfg.Chat.AnimationDelay)
	}
}

// TestLoad_Defaults verifies a missing default config file falls back to built-in values.
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "duochat.db" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Chat.PeerName != "Alisha" || !cfg.Chat.Seed {
		t.Fatalf("unexpected chat defaults: %+v", cfg.Chat)
	}
	if cfg.Chat.AnimationDelay != 500*time.Millisecond {
		t.Fatalf("unexpected animation delay: %v", cfg.Chat.AnimationDelay)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("DUOCHAT_STORE_DRIVER", "memory")
	t.Setenv("DUOCHAT_CHAT_PEER_NAME", "Robin")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("env did not override driver: %s", cfg.Store.Driver)
	}
	if cfg.Chat.PeerName != "Robin" {
		t.Fatalf("env did not override peer name: %s", cfg.Chat.PeerName)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DUOCHAT_LOG_LEVEL", "")
	os.Unsetenv("DUOCHAT_LOG_LEVEL")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DUOCHAT_LOG_LEVEL=error\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("expected level from .env, got %s", cfg.Log.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: postgres\n")

	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
