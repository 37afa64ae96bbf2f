package loaders

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JSONLoader parses JSON files into Documents. When Schemas is set,
// documents bound to a schema are validated after parsing.
type JSONLoader struct {
	Schemas *SchemaRegistry
}

func (jl *JSONLoader) Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if jl.Schemas != nil {
		if err := jl.Schemas.Validate(path, root); err != nil {
			return Document{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return NewDocument(root), nil
}

// DocumentLoader picks the JSON or TOML parser from the file extension.
type DocumentLoader struct {
	Schemas *SchemaRegistry
}

func (dl *DocumentLoader) Load(path string) (Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return (&TOMLLoader{Schemas: dl.Schemas}).Load(path)
	}
	return (&JSONLoader{Schemas: dl.Schemas}).Load(path)
}
