// Command update_manifest refreshes the size and checksum of every variant in
// the embedded model manifest by downloading each artefact once.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/betterfasterwhisper/whisper-core/internal/models"
)

func main() {
	manifestPath := flag.String("manifest", "internal/models/embedded_manifest.json", "path to manifest JSON to update")
	flag.Parse()

	file, err := os.Open(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open manifest: %v\n", err)
		os.Exit(1)
	}
	manifest, err := models.LoadManifest(file)
	file.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse manifest: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Minute}

	for name, variant := range manifest.Variants {
		if variant.URL == "" {
			fmt.Printf("%s: skipping (no URL)\n", name)
			continue
		}

		fmt.Printf("%s: downloading %s...\n", name, variant.URL)
		sum, size, err := hashURL(client, variant.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			continue
		}

		variant.SHA256 = sum
		variant.SizeBytes = size
		manifest.Variants[name] = variant
		fmt.Printf("%s: size=%d sha256=%s\n", name, size, sum)
	}

	out, err := os.Create(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "write manifest: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		fmt.Fprintf(os.Stderr, "encode manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Updated manifest written to %s\n", *manifestPath)
}

func hashURL(client *http.Client, url string) (string, int64, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", 0, fmt.Errorf("download error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	hasher := sha256.New()
	written, err := io.Copy(hasher, resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read error: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), written, nil
}
