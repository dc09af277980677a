// Package config loads the on-disk TOML configuration into the Config
// value the core operates on. Everything past constructing that value —
// validation of API keys, model choice, or hotkey bindings — is the core's
// job, not this package's.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

// fileConfig mirrors the on-disk TOML schema. Field names use snake_case to
// match the file the original Rust implementation writes.
type fileConfig struct {
	SttAPIKey         string  `toml:"stt_api_key"`
	LiveAPIKey        string  `toml:"live_api_key"`
	SttModel          string  `toml:"stt_model"`
	Language          string  `toml:"language"`
	InitialMode       string  `toml:"initial_mode"`
	VoiceName         string  `toml:"voice_name"`
	SystemInstruction string  `toml:"system_instruction"`
	Temperature       float64 `toml:"temperature"`
	Dictionary        string  `toml:"dictionary"`
	Transport         string  `toml:"transport"`
}

func defaults() fileConfig {
	return fileConfig{
		SttModel:    "whisper-1",
		Language:    "en",
		InitialMode: "dictation",
		VoiceName:   "default",
		Temperature: 0.2,
		Transport:   "websocket",
	}
}

// DefaultPath returns ~/.config/mavoice/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "mavoice", "config.toml"), nil
}

// Load reads path, falling back to defaults for any field left unset, and
// to the MAVOICE_STT_API_KEY / MAVOICE_LIVE_API_KEY environment variables
// when the corresponding TOML field is empty. If path does not exist, a
// default config is written there and returned.
func Load(path string) (mvtypes.Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path, cfg); writeErr != nil {
			return mvtypes.Config{}, fmt.Errorf("config: write default: %w", writeErr)
		}
	} else if err != nil {
		return mvtypes.Config{}, mvtypes.NewError(mvtypes.ConfigErrorKind, "config", err)
	} else {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return mvtypes.Config{}, mvtypes.NewError(mvtypes.ConfigErrorKind, "config", fmt.Errorf("parse toml: %w", err))
		}
	}

	if cfg.SttAPIKey == "" {
		cfg.SttAPIKey = os.Getenv("MAVOICE_STT_API_KEY")
	}
	if cfg.LiveAPIKey == "" {
		cfg.LiveAPIKey = os.Getenv("MAVOICE_LIVE_API_KEY")
	}

	return mvtypes.Config{
		SttAPIKey:         cfg.SttAPIKey,
		LiveAPIKey:        cfg.LiveAPIKey,
		SttModel:          cfg.SttModel,
		Language:          cfg.Language,
		InitialMode:       cfg.InitialMode,
		VoiceName:         cfg.VoiceName,
		SystemInstruction: cfg.SystemInstruction,
		Temperature:       cfg.Temperature,
		Dictionary:        cfg.Dictionary,
		Transport:         cfg.Transport,
	}, nil
}

func writeDefault(path string, cfg fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
