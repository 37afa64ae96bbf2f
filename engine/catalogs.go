package engine

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

// managedCatalog is the part of assets.Catalog the engine drives without
// knowing the payload type.
type managedCatalog interface {
	assets.Reloadable
	Name() string
	Register(path string) error
	Len() int
	AsyncLoadAll(force bool) int
	LoadParallel(ctx context.Context, limit int) error
	Poll(bus *core.EventBus) int
	AllReported() bool
	Metrics() *core.Metrics
	Wait()
	Release()
}

type catalogEntry struct {
	kind    string
	catalog managedCatalog
}

// newCatalog builds the catalog whose loader matches kind. json and toml
// are documents restricted to a single format.
func newCatalog(kind string, schemas *loaders.SchemaRegistry, opts ...assets.Option) (managedCatalog, error) {
	switch kind {
	case "json":
		return assets.NewCatalog[loaders.Document](&loaders.JSONLoader{Schemas: schemas}, opts...), nil
	case "toml":
		return assets.NewCatalog[loaders.Document](&loaders.TOMLLoader{Schemas: schemas}, opts...), nil
	}

	rt, _ := loaders.ParseResourceType(kind)
	switch rt {
	case loaders.ResourceTypeText:
		return assets.NewCatalog[string](&loaders.TextLoader{}, opts...), nil
	case loaders.ResourceTypeDocument:
		return assets.NewCatalog[loaders.Document](&loaders.DocumentLoader{Schemas: schemas}, opts...), nil
	case loaders.ResourceTypeBinary:
		return assets.NewCatalog[[]byte](&loaders.BinaryLoader{}, opts...), nil
	case loaders.ResourceTypeShader:
		return assets.NewCatalog[[]uint32](&loaders.SPIRVLoader{}, opts...), nil
	case loaders.ResourceTypeImage:
		return assets.NewCatalog[loaders.Image](&loaders.ImageLoader{FlipY: true}, opts...), nil
	case loaders.ResourceTypeMaterial:
		return assets.NewCatalog[loaders.MaterialConfig](&loaders.MaterialLoader{}, opts...), nil
	case loaders.ResourceTypeBitmapFont:
		return assets.NewCatalog[loaders.BitmapFont](&loaders.BitmapFontLoader{}, opts...), nil
	case loaders.ResourceTypeSystemFont:
		return assets.NewCatalog[loaders.SystemFont](&loaders.SystemFontLoader{}, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownKind, kind)
	}
}

// mismatchedPaths lists the asset files whose extension suggests another
// kind than the one of their catalog. Binary catalogs accept anything.
func mismatchedPaths(kind string, paths []string) []string {
	want, _ := loaders.ParseResourceType(kind)
	switch kind {
	case "json", "toml":
		want = loaders.ResourceTypeDocument
	}
	if want == loaders.ResourceTypeBinary {
		return nil
	}

	var out []string
	for _, p := range paths {
		got := loaders.DetermineType(p)
		if got != loaders.ResourceTypeUnknown && got != want {
			out = append(out, p)
		}
	}
	return out
}

// CatalogOf returns the catalog called name, typed by its payload.
// Document kinds (document, json, toml) hold loaders.Document, image
// holds loaders.Image, and so on.
func CatalogOf[T any](e *Engine, name string) (*assets.Catalog[T], error) {
	e.mu.RLock()
	entry, ok := e.catalogs[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("catalog %s: %w", name, core.ErrAssetNotFound)
	}
	c, ok := entry.catalog.(*assets.Catalog[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("catalog %s holds %s assets, not %T", name, entry.kind, zero)
	}
	return c, nil
}

// CatalogStats summarizes one catalog's loads.
type CatalogStats struct {
	Name      string
	Kind      string
	Assets    int
	Loads     uint64
	Failures  uint64
	AvgLoadMs float64
}
