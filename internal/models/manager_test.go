package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultManifest(t *testing.T) {
	manifest, err := DefaultManifest()
	if err != nil {
		t.Fatalf("DefaultManifest error: %v", err)
	}
	for _, variant := range []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3", "large-v3-turbo"} {
		entry, ok := manifest.Variants[variant]
		if !ok {
			t.Fatalf("manifest missing variant %q", variant)
		}
		if entry.Filename == "" {
			t.Fatalf("variant %q has empty filename", variant)
		}
		if entry.URL == "" {
			t.Fatalf("variant %q has empty url", variant)
		}
	}
}

func TestLoadManifestRejectsEmpty(t *testing.T) {
	if _, err := LoadManifest(strings.NewReader(`{"variants":{}}`)); err == nil {
		t.Fatalf("expected error for empty manifest")
	}
}

func TestNewManagerCreatesModelsDir(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	info, err := os.Stat(manager.ModelsDir())
	if err != nil {
		t.Fatalf("models dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("models dir is not a directory")
	}
}

func TestResolveOverride(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	path := filepath.Join(tempDir, "custom.bin")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	resolved, err := manager.Resolve("base", path)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected %q, got %q", path, resolved)
	}
}

func TestResolveMissingModel(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	_, err = manager.Resolve("base", "")
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}

	_, err = manager.Resolve("base", filepath.Join(tempDir, "missing.bin"))
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound for missing override, got %v", err)
	}
}

func TestEnsureVariantExistingFile(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	path := filepath.Join(manager.ModelsDir(), "ggml-base.bin")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	got, err := manager.EnsureVariant(context.Background(), "base", EnsureOptions{})
	if err != nil {
		t.Fatalf("EnsureVariant error: %v", err)
	}
	if got != path {
		t.Fatalf("expected %q, got %q", path, got)
	}
}

func TestEnsureVariantMissingWithoutDownload(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	_, err = manager.EnsureVariant(context.Background(), "base", EnsureOptions{})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestEnsureVariantUnknown(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	if _, err := manager.EnsureVariant(context.Background(), "enormous", EnsureOptions{}); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
