package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from the environment. Tests can override Lookup
// to inject deterministic maps and ReadFile to avoid touching the filesystem.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load assembles the configuration in precedence order: YAML config file
// (WHISPER_CONFIG_FILE), inline JSON payload (WHISPER_CONFIG), then per-key
// environment overrides. The result is validated.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	var cfg Config

	if path, ok := l.Lookup("WHISPER_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		raw, err := l.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if raw, ok := l.Lookup("WHISPER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode WHISPER_CONFIG: %w", err)
		}
	}

	overrideString(l.Lookup, "WHISPER_MODEL_PATH", &cfg.ModelPath)
	overrideString(l.Lookup, "WHISPER_MODEL_SIZE", &cfg.ModelSize)
	overrideString(l.Lookup, "WHISPER_LANGUAGE", &cfg.Language)
	overrideString(l.Lookup, "WHISPER_BACKEND", &cfg.Backend)
	overrideString(l.Lookup, "WHISPER_DATA_DIR", &cfg.DataDir)
	overrideString(l.Lookup, "WHISPER_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "WHISPER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "WHISPER_HISTORY_PATH", &cfg.HistoryPath)
	overrideString(l.Lookup, "OPENAI_API_KEY", &cfg.OpenAIKey)
	overrideBool(l.Lookup, "WHISPER_TRANSLATE", &cfg.Translate)
	overrideBool(l.Lookup, "WHISPER_USE_GPU", &cfg.UseGPU)
	if err := overrideInt(l.Lookup, "WHISPER_THREADS", &cfg.Threads); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s must be an integer, got %q", key, value)
	}
	*target = parsed
	return nil
}
