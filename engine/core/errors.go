package core

import (
	"errors"
)

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrManifestNotFound = errors.New("manifest not found")
	ErrManifestInvalid  = errors.New("manifest invalid")
	ErrTaskRunning      = errors.New("task is still running")
	ErrUnknownKind      = errors.New("unknown asset kind")
	ErrSchemaNotFound   = errors.New("schema not found")
	ErrSchemaViolation  = errors.New("document does not match its schema")
)
