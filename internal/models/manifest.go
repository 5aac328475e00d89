package models

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
)

//go:embed embedded_manifest.json
var embeddedManifest []byte

// Variant describes a downloadable model artefact.
type Variant struct {
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	SHA256      string `json:"sha256,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

// Manifest maps variant names (tiny, base, ...) to their artefacts.
type Manifest struct {
	Variants map[string]Variant `json:"variants"`
}

// LoadManifest parses a manifest from r.
func LoadManifest(r io.Reader) (Manifest, error) {
	var manifest Manifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("models: decode manifest: %w", err)
	}
	if len(manifest.Variants) == 0 {
		return Manifest{}, fmt.Errorf("models: manifest has no variants")
	}
	return manifest, nil
}

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() (Manifest, error) {
	return LoadManifest(bytes.NewReader(embeddedManifest))
}
