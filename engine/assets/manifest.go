package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// ManifestEntry names one asset file.
type ManifestEntry struct {
	Name string `json:"name" toml:"name" validate:"required"`
	Path string `json:"path" toml:"path" validate:"required"`
	// Schema optionally names an entry of Manifest.Schema the asset is
	// validated against.
	Schema string `json:"schema,omitempty" toml:"schema,omitempty"`
}

// SchemaEntry names one JSON schema file.
type SchemaEntry struct {
	Name string `json:"name" toml:"name" validate:"required"`
	Path string `json:"path" toml:"path" validate:"required"`
}

// Manifest is the document a catalog is populated from.
//
// JSON manifests are either an object:
//
//	{"list": [{"name": "hero", "path": "data/hero.json"}], "schema": [...]}
//
// or a bare array of entries. TOML manifests use [[list]] and [[schema]] tables.
type Manifest struct {
	List   []ManifestEntry `json:"list" toml:"list" validate:"dive"`
	Schema []SchemaEntry   `json:"schema,omitempty" toml:"schema,omitempty" validate:"dive"`

	// Path of the manifest file, empty for in-memory manifests.
	Path string `json:"-" toml:"-"`
}

// ManifestReader is the collaborator a catalog reads manifests through.
type ManifestReader interface {
	ReadManifest(path string) (*Manifest, error)
}

// FileManifestReader reads JSON or TOML manifests from disk, picking the
// format from the file extension.
type FileManifestReader struct{}

var manifestValidator = validator.New()

func (FileManifestReader) ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// ParseManifest decodes and validates a manifest. ext selects the format
// (".toml" for TOML, anything else is treated as JSON).
func ParseManifest(data []byte, ext string) (*Manifest, error) {
	m := &Manifest{}
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("%w: %s", core.ErrManifestInvalid, err)
		}
	default:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &m.List); err != nil {
				return nil, fmt.Errorf("%w: %s", core.ErrManifestInvalid, err)
			}
		} else if err := json.Unmarshal(trimmed, m); err != nil {
			return nil, fmt.Errorf("%w: %s", core.ErrManifestInvalid, err)
		}
	}
	if err := manifestValidator.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrManifestInvalid, err)
	}
	return m, nil
}
