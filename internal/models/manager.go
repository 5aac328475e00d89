package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrModelNotFound indicates that no model file exists at the resolved path
// and none could be fetched.
var ErrModelNotFound = errors.New("models: model not found")

// Manager resolves model variants to local files under <baseDir>/models and
// downloads missing artefacts on demand.
type Manager struct {
	baseDir string
	log     *slog.Logger
	client  *http.Client
}

// EnsureOptions tunes EnsureVariant.
type EnsureOptions struct {
	Manifest Manifest
	// Override short-circuits resolution to an explicit file path.
	Override string
	// Download permits fetching a missing artefact from its manifest URL.
	Download bool
}

// NewManager creates the models directory and returns a Manager rooted at baseDir.
func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("models: base directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(baseDir, "models")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("models: create %s: %w", dir, err)
	}
	return &Manager{
		baseDir: baseDir,
		log:     logger.With("component", "models.Manager"),
		client:  &http.Client{},
	}, nil
}

// ModelsDir returns the directory holding model files.
func (m *Manager) ModelsDir() string {
	return filepath.Join(m.baseDir, "models")
}

// Resolve returns the local path for a variant. An override path wins when
// set; either way the file must already exist.
func (m *Manager) Resolve(variant, override string) (string, error) {
	if path := strings.TrimSpace(override); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return path, nil
	}

	manifest, err := DefaultManifest()
	if err != nil {
		return "", err
	}
	entry, ok := manifest.Variants[variant]
	if !ok {
		return "", fmt.Errorf("models: unknown variant %q", variant)
	}
	path := filepath.Join(m.ModelsDir(), entry.Filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	return path, nil
}

// EnsureVariant resolves a variant and, when permitted, downloads a missing
// artefact with checksum verification. The returned path exists on success.
func (m *Manager) EnsureVariant(ctx context.Context, variant string, opts EnsureOptions) (string, error) {
	if path := strings.TrimSpace(opts.Override); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return path, nil
	}

	manifest := opts.Manifest
	if len(manifest.Variants) == 0 {
		var err error
		manifest, err = DefaultManifest()
		if err != nil {
			return "", err
		}
	}
	entry, ok := manifest.Variants[variant]
	if !ok {
		return "", fmt.Errorf("models: unknown variant %q", variant)
	}

	path := filepath.Join(m.ModelsDir(), entry.Filename)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if !opts.Download || entry.URL == "" {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}

	if err := m.download(ctx, entry, path); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Manager) download(ctx context.Context, entry Variant, path string) error {
	m.log.Info("downloading model", "url", entry.URL, "path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return fmt.Errorf("models: build request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("models: download %s: %w", entry.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("models: download %s: unexpected status %s", entry.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("models: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("models: write %s: %w", tmp.Name(), err)
	}

	if entry.SHA256 != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(sum, entry.SHA256) {
			return fmt.Errorf("models: checksum mismatch for %s: want %s, got %s", entry.Filename, entry.SHA256, sum)
		}
	}
	if entry.SizeBytes > 0 && written != entry.SizeBytes {
		m.log.Warn("downloaded size differs from manifest",
			"filename", entry.Filename,
			"want", entry.SizeBytes,
			"got", written,
		)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("models: move %s into place: %w", entry.Filename, err)
	}
	m.log.Info("model ready", "path", path, "bytes", written)
	return nil
}
