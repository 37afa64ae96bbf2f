package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Catalog is a named set of records populated from a manifest.
// All methods are safe for concurrent use.
type Catalog[T any] struct {
	loader  Loader[T]
	opts    options
	metrics *core.Metrics

	mu       sync.RWMutex
	manifest *Manifest
	records  map[string]*Record[T]
}

// NewCatalog creates an empty catalog whose records all load with loader.
func NewCatalog[T any](loader Loader[T], opts ...Option) *Catalog[T] {
	o := newOptions(opts...)
	if o.metrics == nil {
		o.metrics = core.NewMetrics()
	}
	return &Catalog[T]{
		loader:  loader,
		opts:    o,
		metrics: o.metrics,
		records: make(map[string]*Record[T]),
	}
}

// Name is the name given with WithName.
func (c *Catalog[T]) Name() string {
	return c.opts.name
}

// Register reads the manifest at path and creates one record per entry.
// Nothing is loaded. When the manifest cannot be read or parsed the
// error is logged and returned and the catalog is left untouched.
// Calling Register again re-reads the manifest; entries with an already
// registered name replace the previous record.
func (c *Catalog[T]) Register(path string) error {
	m, err := c.opts.reader.ReadManifest(path)
	if err != nil {
		c.opts.logger.Errorf("failed to register manifest '%s': %s", path, err)
		return err
	}
	if m.Path == "" {
		m.Path = path
	}
	c.resolve(m)

	for _, hook := range c.opts.hooks {
		if err := hook(m); err != nil {
			c.opts.logger.Errorf("manifest '%s' rejected: %s", path, err)
			return fmt.Errorf("%w: %s", core.ErrManifestInvalid, err)
		}
	}

	c.mu.Lock()
	c.manifest = m
	c.mu.Unlock()

	c.RegisterEntries(m.List...)
	c.opts.logger.Infof("registered %d assets from '%s'", len(m.List), path)
	return nil
}

func (c *Catalog[T]) resolve(m *Manifest) {
	for i := range m.List {
		m.List[i].Path = c.resolvePath(m.List[i].Path)
	}
	for i := range m.Schema {
		m.Schema[i].Path = c.resolvePath(m.Schema[i].Path)
	}
}

func (c *Catalog[T]) resolvePath(p string) string {
	if c.opts.basePath == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.opts.basePath, p)
}

// RegisterEntries adds records for entries without reading a manifest.
// Paths are used as given. Duplicate names keep the last entry.
func (c *Catalog[T]) RegisterEntries(entries ...ManifestEntry) {
	var replaced []*Record[T]

	c.mu.Lock()
	for _, e := range entries {
		if old, ok := c.records[e.Name]; ok {
			c.opts.logger.Warnf("asset '%s' registered twice, '%s' replaces '%s'", e.Name, e.Path, old.FilePath())
			replaced = append(replaced, old)
		}
		c.records[e.Name] = newRecord(e.Path, c.loader, c.opts)
	}
	c.mu.Unlock()

	for _, r := range replaced {
		r.Release()
	}
}

// Get looks a record up by name.
func (c *Catalog[T]) Get(name string) (*Record[T], error) {
	c.mu.RLock()
	r, ok := c.records[name]
	c.mu.RUnlock()
	if !ok {
		c.opts.logger.Errorf("asset not found: %s", name)
		return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, name)
	}
	return r, nil
}

// Records returns a snapshot of the name to record mapping.
func (c *Catalog[T]) Records() map[string]*Record[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*Record[T], len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}

// Names returns the registered names, sorted.
func (c *Catalog[T]) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.records))
	for k := range c.records {
		names = append(names, k)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (c *Catalog[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Manifest returns the last registered manifest, nil if none.
func (c *Catalog[T]) Manifest() *Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.manifest
}

func (c *Catalog[T]) Metrics() *core.Metrics {
	return c.metrics
}

// LoadAll loads every record on the calling goroutine. A failing record
// does not stop the others; the failures are joined in the returned error.
func (c *Catalog[T]) LoadAll() error {
	var errs []error
	for name, r := range c.Records() {
		if !r.Load() {
			c.opts.logger.Errorf("asset load failed: %s", name)
			errs = append(errs, fmt.Errorf("load %s: %w", name, r.Err()))
		}
	}
	return errors.Join(errs...)
}

// LoadParallel is LoadAll with at most limit loads running at once.
// limit <= 0 means no limit. Loads already started are not interrupted
// when ctx is cancelled, but no new ones begin.
func (c *Catalog[T]) LoadParallel(ctx context.Context, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	var errs []error
	for name, r := range c.Records() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if !r.Load() {
				c.opts.logger.Errorf("asset load failed: %s", name)
				mu.Lock()
				errs = append(errs, fmt.Errorf("load %s: %w", name, r.Err()))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load loads the named record synchronously.
func (c *Catalog[T]) Load(name string) (bool, error) {
	r, err := c.Get(name)
	if err != nil {
		return false, err
	}
	if !r.Load() {
		c.opts.logger.Errorf("asset load failed: %s (%s)", name, r.FilePath())
		return false, nil
	}
	return true, nil
}

// AsyncLoad starts a background load of the named record. See
// Record.AsyncLoad for when a load is actually started.
func (c *Catalog[T]) AsyncLoad(name string, force bool) error {
	r, err := c.Get(name)
	if err != nil {
		return err
	}
	r.AsyncLoad(force)
	return nil
}

// AsyncLoadAll calls AsyncLoad on every record and returns how many
// background loads were started.
func (c *Catalog[T]) AsyncLoadAll(force bool) int {
	started := 0
	for _, r := range c.Records() {
		if r.AsyncLoad(force) {
			started++
		}
	}
	return started
}

func (c *Catalog[T]) IsLoaded(name string) (bool, error) {
	r, err := c.Get(name)
	if err != nil {
		return false, err
	}
	return r.IsLoaded(), nil
}

func (c *Catalog[T]) IsLoadSucceeded(name string) (bool, error) {
	r, err := c.Get(name)
	if err != nil {
		return false, err
	}
	return r.IsLoadSucceeded(), nil
}

func (c *Catalog[T]) IsLoadedOnlyOnce(name string) (bool, error) {
	r, err := c.Get(name)
	if err != nil {
		return false, err
	}
	return r.IsLoadedOnlyOnce(), nil
}

func (c *Catalog[T]) ResetLoadedOnlyOnce(name string) error {
	r, err := c.Get(name)
	if err != nil {
		return err
	}
	r.ResetLoadedOnlyOnce()
	return nil
}

func (c *Catalog[T]) FilePath(name string) (string, error) {
	r, err := c.Get(name)
	if err != nil {
		return "", err
	}
	return r.FilePath(), nil
}

func (c *Catalog[T]) Payload(name string) (T, error) {
	r, err := c.Get(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.Payload(), nil
}

// CopyPayload returns a private copy of the named payload.
func (c *Catalog[T]) CopyPayload(name string) (T, error) {
	r, err := c.Get(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.CopyPayload(), nil
}

// AllReported is true when every record is loaded and its one-shot
// latch has been consumed.
func (c *Catalog[T]) AllReported() bool {
	for _, r := range c.Records() {
		s := r.Status()
		if !s.Loaded || !s.Consumed {
			return false
		}
	}
	return true
}

// Poll fires EVENT_CODE_ASSET_LOADED or EVENT_CODE_ASSET_FAILED for every
// record that became loaded since it was last reported, and returns the
// number of events fired.
func (c *Catalog[T]) Poll(bus *core.EventBus) int {
	fired := 0
	for name, r := range c.Records() {
		if !r.IsLoadedOnlyOnce() {
			continue
		}
		s := r.Status()
		code := core.EVENT_CODE_ASSET_LOADED
		if !s.Succeeded {
			code = core.EVENT_CODE_ASSET_FAILED
		}
		if bus != nil {
			bus.Fire(code, c, core.EventContext{
				Catalog:    c.opts.name,
				Name:       name,
				Path:       s.Path,
				Succeeded:  s.Succeeded,
				Generation: s.Generation,
				Err:        s.Err,
			})
		}
		fired++
	}
	return fired
}

// WatchedPaths lists the files backing the records.
func (c *Catalog[T]) WatchedPaths() []string {
	records := c.Records()
	paths := make([]string, 0, len(records))
	for _, r := range records {
		paths = append(paths, r.FilePath())
	}
	return paths
}

// ReloadPath forces a background reload of every record backed by path
// and re-arms their one-shot latch. A record already loading is waited
// for first. It returns how many reloads started.
func (c *Catalog[T]) ReloadPath(path string) int {
	target := absPath(path)
	started := 0
	for name, r := range c.Records() {
		if absPath(r.FilePath()) != target {
			continue
		}
		ok := r.AsyncLoad(true)
		if !ok {
			// The load in flight may have read the file before this
			// change; wait for it and load again.
			r.Wait()
			ok = r.AsyncLoad(true)
		}
		if !ok {
			c.opts.logger.Warnf("asset '%s' is busy, change to '%s' skipped", name, path)
			continue
		}
		r.ResetLoadedOnlyOnce()
		started++
		c.opts.logger.Debugf("reloading asset '%s' from '%s'", name, path)
	}
	return started
}

// Wait blocks until no record has a background load in flight.
func (c *Catalog[T]) Wait() {
	for _, r := range c.Records() {
		r.Wait()
	}
}

// Release waits for in-flight loads and drops the manifest and every
// record. It is safe to call more than once.
func (c *Catalog[T]) Release() {
	c.mu.Lock()
	records := c.records
	c.records = make(map[string]*Record[T])
	c.manifest = nil
	c.mu.Unlock()

	for _, r := range records {
		r.Release()
	}
}

// PathSource is a loaded document able to resolve a file path under keys.
type PathSource interface {
	LookupPath(keys ...string) (string, bool)
}

// RegisterFrom populates dst from the documents held by src: for every
// src record it walks keys into the document and registers the "path"
// found there under the record's name. Unloaded documents are loaded
// first, failed ones are skipped. A document missing keys stops the walk.
func RegisterFrom[T any, D PathSource](dst *Catalog[T], src *Catalog[D], keys ...string) error {
	names := src.Names()
	records := src.Records()
	for _, name := range names {
		r := records[name]
		if !r.IsLoaded() {
			dst.opts.logger.Warnf("document '%s' not loaded yet, loading it now", name)
			r.Wait()
			if !r.IsLoaded() {
				r.Load()
			}
		}
		if !r.IsLoadSucceeded() {
			dst.opts.logger.Errorf("path not found: %s", r.FilePath())
			continue
		}
		doc := r.Payload()
		path, ok := doc.LookupPath(keys...)
		if !ok {
			dst.opts.logger.Warnf("document '%s' has no path under %v", name, keys)
			return nil
		}
		dst.RegisterEntries(ManifestEntry{Name: name, Path: dst.resolvePath(path)})
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
