package loaders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

var structValidator = validator.New()

// StructLoader decodes a JSON or TOML file straight into T and runs the
// `validate` struct tags on the result. The format comes from the file
// extension; anything that is not .toml is read as JSON.
type StructLoader[T any] struct {
	// DisallowUnknownFields rejects keys with no matching field.
	DisallowUnknownFields bool
}

func (sl StructLoader[T]) Load(path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		if sl.DisallowUnknownFields {
			dec.DisallowUnknownFields()
		}
		err = dec.Decode(&out)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		if sl.DisallowUnknownFields {
			dec.DisallowUnknownFields()
		}
		err = dec.Decode(&out)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validateStruct(out); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func validateStruct(v any) error {
	err := structValidator.Struct(v)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Not a struct (maps, slices): nothing to check.
		return nil
	}
	return err
}
