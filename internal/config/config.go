package config

import (
	"fmt"
	"path/filepath"
)

const (
	// DefaultListenAddr is used when the daemon is started without an explicit address.
	DefaultListenAddr = "127.0.0.1:8090"
	DefaultModelSize  = "base"
	DefaultLanguage   = "auto"
	DefaultLogLevel   = "info"
	DefaultDataDir    = "data"
	DefaultBackend    = "native"

	// MaxThreads bounds the caller-supplied thread count to a platform-sane value.
	MaxThreads = 512
)

// ModelFilenames maps a model size to its conventional ggml filename.
var ModelFilenames = map[string]string{
	"tiny":           "ggml-tiny.bin",
	"base":           "ggml-base.bin",
	"small":          "ggml-small.bin",
	"medium":         "ggml-medium.bin",
	"large":          "ggml-large.bin",
	"large-v2":       "ggml-large-v2.bin",
	"large-v3":       "ggml-large-v3.bin",
	"large-v3-turbo": "ggml-large-v3-turbo.bin",
}

// Config captures engine and daemon configuration. The zero value is not
// usable directly; Validate applies defaults and range checks.
type Config struct {
	// ModelPath points at a model file. Empty means "derive from DataDir and ModelSize".
	ModelPath string `yaml:"model_path" json:"model_path"`
	ModelSize string `yaml:"model_size" json:"model_size"`
	// Language is a hint for the recognizer; "auto" (or empty) enables detection.
	Language  string `yaml:"language" json:"language"`
	Translate bool   `yaml:"translate" json:"translate"`
	// Threads limits inference threads; 0 lets the backend choose.
	Threads int `yaml:"threads" json:"threads"`
	// UseGPU is advisory: backends without GPU support fall back to CPU
	// silently, a documented degradation rather than an error.
	UseGPU bool `yaml:"use_gpu" json:"use_gpu"`

	Backend     string `yaml:"backend" json:"backend"`
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	ListenAddr  string `yaml:"listen_addr" json:"listen_addr"`
	HistoryPath string `yaml:"history_path" json:"history_path"`

	// OpenAIKey is only consulted by the openai backend.
	OpenAIKey string `yaml:"openai_key" json:"openai_key"`
}

// Default returns the configuration InitializeDefault synthesizes: auto
// threads, CPU only, auto language detection, no translation, and the
// conventional model path under the data dir.
func Default() Config {
	var cfg Config
	// Validate on a zero value only fills defaults and cannot fail.
	_ = cfg.Validate()
	return cfg
}

// Validate applies defaults, checks required fields, and rejects out-of-range
// values.
func (c *Config) Validate() error {
	if c.ModelSize == "" {
		c.ModelSize = DefaultModelSize
	}
	if _, ok := ModelFilenames[c.ModelSize]; !ok {
		return fmt.Errorf("config: unknown model size %q", c.ModelSize)
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", c.Threads)
	}
	if c.Threads > MaxThreads {
		return fmt.Errorf("config: threads must be <= %d, got %d", MaxThreads, c.Threads)
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	switch c.Backend {
	case "native", "stub", "openai":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	return nil
}

// ResolvedModelPath returns the explicit model path when set, otherwise the
// conventional location under the data dir for the configured size.
func (c Config) ResolvedModelPath() string {
	if c.ModelPath != "" {
		return c.ModelPath
	}
	return filepath.Join(c.DataDir, "models", ModelFilenames[c.ModelSize])
}
