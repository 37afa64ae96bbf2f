package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

// SchemaRegistry holds compiled JSON schemas and the asset files bound
// to them. Its RegisterManifest method is meant to be installed with
// assets.WithManifestHook so manifests bind their entries on registration.
type SchemaRegistry struct {
	logger core.Logger

	mu      sync.RWMutex
	byName  map[string]*jsonschema.Schema
	byAsset map[string]*jsonschema.Schema
}

func NewSchemaRegistry(logger core.Logger) *SchemaRegistry {
	if logger == nil {
		logger = core.DefaultLogger()
	}
	return &SchemaRegistry{
		logger:  logger,
		byName:  make(map[string]*jsonschema.Schema),
		byAsset: make(map[string]*jsonschema.Schema),
	}
}

// RegisterSchema compiles the schema file at path under name. A later
// registration under the same name replaces the schema.
func (s *SchemaRegistry) RegisterSchema(name, path string) error {
	abs := cleanPath(path)
	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	defer f.Close()

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(abs, f); err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(abs)
	if err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}

	s.mu.Lock()
	s.byName[name] = schema
	s.mu.Unlock()
	s.logger.Debugf("compiled schema '%s' from '%s'", name, path)
	return nil
}

// Bind validates the asset at path against the schema called name.
func (s *SchemaRegistry) Bind(path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSchemaNotFound, name)
	}
	s.byAsset[cleanPath(path)] = schema
	return nil
}

// RegisterManifest compiles the manifest's schema list and binds every
// entry naming a schema. Unknown schema names are an error.
func (s *SchemaRegistry) RegisterManifest(m *assets.Manifest) error {
	for _, e := range m.Schema {
		if err := s.RegisterSchema(e.Name, e.Path); err != nil {
			return err
		}
	}
	for _, e := range m.List {
		if e.Schema == "" {
			continue
		}
		if err := s.Bind(e.Path, e.Schema); err != nil {
			return fmt.Errorf("asset %s: %w", e.Name, err)
		}
	}
	return nil
}

// Validate checks v against the schema bound to path. Paths without a
// schema always pass.
func (s *SchemaRegistry) Validate(path string, v any) error {
	s.mu.RLock()
	schema, ok := s.byAsset[cleanPath(path)]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %s", core.ErrSchemaViolation, err)
	}
	return nil
}

func (s *SchemaRegistry) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
