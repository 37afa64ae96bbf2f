package loaders

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TOMLLoader parses TOML files into Documents.
type TOMLLoader struct {
	Schemas *SchemaRegistry
}

func (tl *TOMLLoader) Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	root := map[string]any{}
	if err := toml.Unmarshal(data, &root); err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if tl.Schemas != nil {
		if err := tl.Schemas.Validate(path, root); err != nil {
			return Document{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return NewDocument(root), nil
}
