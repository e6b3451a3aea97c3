// Package manifest reads and writes blueprint manifests in YAML or JSON.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/frame/internal/validator"
	"github.com/aretw0/frame/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a manifest document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension. Anything other than .json is YAML.
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Catalog is a file holding several manifests.
type Catalog struct {
	Blueprints []domain.Manifest `yaml:"blueprints" json:"blueprints"`
}

// Decode parses and validates a single manifest.
func Decode(data []byte, format Format) (*domain.Manifest, error) {
	var m domain.Manifest
	if err := unmarshal(data, format, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := validator.ValidateManifest(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode serializes a manifest.
func Encode(m *domain.Manifest, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.Marshal(m)
	}
	return yaml.Marshal(m)
}

// LoadFile reads a single manifest file.
func LoadFile(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Decode(data, FormatOf(path))
}

// LoadCatalog reads a catalog file and returns its manifests keyed by normalized name.
// A missing file yields an empty catalog.
func LoadCatalog(path string) (map[string]*domain.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cat Catalog
	if err := unmarshal(data, FormatOf(path), &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", filepath.Base(path), err)
	}

	out := make(map[string]*domain.Manifest, len(cat.Blueprints))
	for i := range cat.Blueprints {
		m := &cat.Blueprints[i]
		if err := validator.ValidateManifest(m); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		out[domain.ParseRef(m.Name).Name] = m
	}
	return out, nil
}

func unmarshal(data []byte, format Format, out any) error {
	if format == FormatJSON {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}
