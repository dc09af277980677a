package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mavoice", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InitialMode != "dictation" {
		t.Fatalf("expected default initial_mode, got %q", cfg.InitialMode)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
}

func TestLoadParsesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
stt_api_key = "sk-test"
initial_mode = "conversation"
voice_name = "aria"
temperature = 0.5
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SttAPIKey != "sk-test" {
		t.Fatalf("unexpected stt api key %q", cfg.SttAPIKey)
	}
	if cfg.InitialMode != "conversation" {
		t.Fatalf("unexpected initial mode %q", cfg.InitialMode)
	}
	if cfg.Temperature != 0.5 {
		t.Fatalf("unexpected temperature %v", cfg.Temperature)
	}
}

func TestLoadFallsBackToEnvForAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("MAVOICE_STT_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SttAPIKey != "from-env" {
		t.Fatalf("expected env fallback, got %q", cfg.SttAPIKey)
	}
}
