package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/config"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything
	EngineStageShutdown
)

var ErrEngineStage = errors.New("engine is not in the right stage")

// Engine wires configuration, the job system, the event bus, the asset
// catalogs and the file watcher together.
type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	logger       core.Logger

	bus     *core.EventBus
	jobs    *systems.JobSystem
	schemas *loaders.SchemaRegistry
	watcher *assets.Watcher
	clock   *core.Clock

	mu       sync.RWMutex
	catalogs map[string]*catalogEntry
	order    []string

	allReported bool
	lastTime    time.Duration
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if g == nil {
		g = &Game{}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if cfg.Log.Prefix != "" {
		core.SetLogPrefix(cfg.Log.Prefix)
	}
	logger := core.DefaultLogger()

	js, err := systems.NewJobSystem(cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		logger:       logger,
		bus:          core.NewEventBus(),
		jobs:         js,
		schemas:      loaders.NewSchemaRegistry(logger),
		clock:        core.NewClock(),
		catalogs:     make(map[string]*catalogEntry),
	}, nil
}

func (e *Engine) Stage() Stage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentStage
}

func (e *Engine) setStage(s Stage) {
	e.mu.Lock()
	e.currentStage = s
	e.mu.Unlock()
}

func (e *Engine) Events() *core.EventBus {
	return e.bus
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Schemas() *loaders.SchemaRegistry {
	return e.schemas
}

func (e *Engine) resolve(p string) string {
	if e.config.Assets.BasePath == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.config.Assets.BasePath, p)
}

// Initialize registers every configured manifest in the catalog chosen
// by its kind, runs the game's initialize hook, starts the watcher when
// enabled and finally starts loading.
//
// On failure the watcher is closed and the engine is back to
// EngineStageUninitialized.
func (e *Engine) Initialize() error {
	if e.Stage() != EngineStageUninitialized {
		return fmt.Errorf("initialize: %w", ErrEngineStage)
	}
	e.setStage(EngineStageInitializing)

	if err := e.initialize(); err != nil {
		if e.watcher != nil {
			if cerr := e.watcher.Close(); cerr != nil {
				core.LogWarn("closing asset watcher: %s", cerr)
			}
			e.watcher = nil
		}
		e.setStage(EngineStageUninitialized)
		return err
	}

	e.setStage(EngineStageInitialized)
	core.LogInfo("engine initialized with %d catalog(s)", len(e.catalogList()))
	return nil
}

func (e *Engine) initialize() error {
	for _, m := range e.config.Assets.Manifests {
		c, err := e.catalogFor(m)
		if err != nil {
			core.LogError("manifest '%s': %s", m.Path, err)
			return err
		}
		path := e.resolve(m.Path)
		if err := c.Register(path); err != nil {
			return err
		}
		for _, p := range mismatchedPaths(m.Kind, c.WatchedPaths()) {
			core.LogWarn("'%s' in catalog '%s' does not look like a %s asset", p, c.Name(), m.Kind)
		}
		e.bus.Fire(core.EVENT_CODE_MANIFEST_REGISTERED, e, core.EventContext{
			Catalog: c.Name(),
			Path:    path,
		})
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	if e.config.Assets.Watch {
		w, err := assets.NewWatcher(e.bus, assets.WithLogger(e.logger))
		if err != nil {
			return err
		}
		e.watcher = w
		for _, c := range e.catalogList() {
			if err := w.Add(c); err != nil {
				core.LogError("cannot watch catalog '%s': %s", c.Name(), err)
				return err
			}
		}
	}

	return e.startLoads()
}

func (e *Engine) catalogFor(m config.ManifestConfig) (managedCatalog, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.catalogs[m.Name]; ok {
		if entry.kind != m.Kind {
			return nil, fmt.Errorf("catalog %s already holds %s assets, cannot add %s", m.Name, entry.kind, m.Kind)
		}
		return entry.catalog, nil
	}

	c, err := newCatalog(m.Kind, e.schemas,
		assets.WithName(m.Name),
		assets.WithLogger(e.logger),
		assets.WithExecutor(e.jobs),
		assets.WithBasePath(e.config.Assets.BasePath),
		assets.WithManifestHook(e.schemas.RegisterManifest),
	)
	if err != nil {
		return nil, err
	}
	e.catalogs[m.Name] = &catalogEntry{kind: m.Kind, catalog: c}
	e.order = append(e.order, m.Name)
	return c, nil
}

func (e *Engine) catalogList() []managedCatalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]managedCatalog, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.catalogs[name].catalog)
	}
	return out
}

func (e *Engine) startLoads() error {
	if p := e.config.Assets.Parallelism; p > 0 {
		var errs []error
		for _, c := range e.catalogList() {
			if err := c.LoadParallel(context.Background(), p); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			// Failed assets are reported through events, loading goes on.
			core.LogWarn("preload finished with failures: %s", err)
		}
		return nil
	}

	started := 0
	for _, c := range e.catalogList() {
		started += c.AsyncLoadAll(false)
	}
	core.LogDebug("started %d background load(s)", started)
	return nil
}

// Tick polls every catalog once and fires the resulting events. It
// returns true the first time every asset has been reported.
func (e *Engine) Tick() bool {
	for _, c := range e.catalogList() {
		c.Poll(e.bus)
	}

	e.mu.Lock()
	if e.allReported {
		e.mu.Unlock()
		return false
	}
	e.mu.Unlock()

	for _, c := range e.catalogList() {
		if !c.AllReported() {
			return false
		}
	}

	e.mu.Lock()
	e.allReported = true
	e.mu.Unlock()
	e.bus.Fire(core.EVENT_CODE_ALL_ASSETS_REPORTED, e, core.EventContext{})
	return true
}

// Run ticks every poll interval and calls the game's update hook. It
// returns when ctx is done, when the update hook fails or, if no watcher
// is running, once every asset has been reported.
func (e *Engine) Run(ctx context.Context) error {
	if e.Stage() != EngineStageInitialized {
		return fmt.Errorf("run: %w", ErrEngineStage)
	}
	e.setStage(EngineStageRunning)

	e.clock.Start()
	e.lastTime = 0

	ticker := time.NewTicker(e.config.Assets.PollInterval)
	defer ticker.Stop()

	for {
		done := e.Tick()

		e.clock.Update()
		current := e.clock.Elapsed()
		delta := (current - e.lastTime).Seconds()
		e.lastTime = current

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, delta); err != nil {
				core.LogError("game update failed, stopping: %s", err)
				return err
			}
		}

		if done && e.watcher == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Shutdown stops the watcher, waits for loads in flight and releases
// the catalogs, then stops the job system. Calling it again is a no-op.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageShutdown {
		e.mu.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.mu.Unlock()

	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	for _, c := range e.catalogList() {
		c.Release()
	}
	errs = append(errs, e.jobs.Shutdown())
	errs = append(errs, e.bus.Shutdown())

	e.setStage(EngineStageShutdown)
	core.LogInfo("engine shut down")
	return errors.Join(errs...)
}

// Stats reports per catalog load metrics, sorted by catalog name.
func (e *Engine) Stats() []CatalogStats {
	e.mu.RLock()
	out := make([]CatalogStats, 0, len(e.catalogs))
	for name, entry := range e.catalogs {
		m := entry.catalog.Metrics()
		out = append(out, CatalogStats{
			Name:      name,
			Kind:      entry.kind,
			Assets:    entry.catalog.Len(),
			Loads:     m.Loads(),
			Failures:  m.Failures(),
			AvgLoadMs: m.LoadTime(),
		})
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
