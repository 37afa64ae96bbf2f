package testbed

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	units "github.com/docker/go-units"

	"github.com/spaghettifunk/anima-assets/engine"
	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

type TestGame struct {
	*engine.Game

	// typed view of the levels manifest
	levels *assets.Catalog[levelConfig]
}

type levelConfig struct {
	Title string `json:"title" validate:"required"`
	Music struct {
		Path string `json:"path"`
	} `json:"music"`
	Spawn struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"spawn"`
}

type gameState struct {
	mu       sync.Mutex
	elapsed  float64
	loaded   int
	failed   int
	reloaded int
	ready    bool
	levelGen uint32
}

func NewTestGame(configPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:       "Anima Asset Testbed",
				ConfigPath: configPath,
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("initializing %s...", g.ApplicationConfig.Name)

	bus := e.Events()
	bus.Register(core.EVENT_CODE_ASSET_LOADED, g, g.onAsset)
	bus.Register(core.EVENT_CODE_ASSET_FAILED, g, g.onAsset)
	bus.Register(core.EVENT_CODE_ASSET_CHANGED, g, g.onAsset)
	bus.Register(core.EVENT_CODE_ASSET_REMOVED, g, g.onAsset)
	bus.Register(core.EVENT_CODE_ALL_ASSETS_REPORTED, g, func(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
		s := g.state()
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
		for _, st := range e.Stats() {
			core.LogInfo("catalog %-12s %-9s %d assets, %d loads, %d failed, avg %.2fms",
				st.Name, st.Kind, st.Assets, st.Loads, st.Failures, st.AvgLoadMs)
		}
		return true
	})

	for _, m := range e.Config().Assets.Manifests {
		if m.Name != "levels" {
			continue
		}
		g.levels = assets.NewCatalog[levelConfig](loaders.StructLoader[levelConfig]{},
			assets.WithName("level-configs"),
			assets.WithBasePath(e.Config().Assets.BasePath),
		)
		if err := g.levels.Register(filepath.Join(e.Config().Assets.BasePath, m.Path)); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) onAsset(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	s := g.state()
	s.mu.Lock()
	defer s.mu.Unlock()

	switch code {
	case core.EVENT_CODE_ASSET_LOADED:
		s.loaded++
		core.LogInfo("%s/%s ready (generation %d)", data.Catalog, data.Name, data.Generation)
	case core.EVENT_CODE_ASSET_FAILED:
		s.failed++
		core.LogWarn("%s/%s failed: %s", data.Catalog, data.Name, data.Err)
	case core.EVENT_CODE_ASSET_CHANGED:
		s.reloaded++
		core.LogInfo("'%s' changed on disk", data.Path)
	case core.EVENT_CODE_ASSET_REMOVED:
		core.LogWarn("'%s' was removed", data.Path)
	}
	return false
}

func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	s := g.state()
	s.mu.Lock()
	s.elapsed += deltaTime
	ready := s.ready
	s.mu.Unlock()

	if !ready {
		return nil
	}
	return g.describeLevel(e)
}

// describeLevel logs the level document every time a new version of it
// is loaded.
func (g *TestGame) describeLevel(e *engine.Engine) error {
	levels, err := engine.CatalogOf[loaders.Document](e, "levels")
	if err != nil {
		// The configuration may not declare levels.
		return nil
	}
	record, err := levels.Get("intro")
	if err != nil || !record.IsLoadSucceeded() {
		return nil
	}

	s := g.state()
	s.mu.Lock()
	gen := record.Generation()
	seen := gen == s.levelGen
	s.levelGen = gen
	s.mu.Unlock()
	if seen {
		return nil
	}

	if g.levels == nil {
		return nil
	}
	// The document changed, refresh the typed view.
	if ok, err := g.levels.Load("intro"); err != nil || !ok {
		core.LogWarn("level 'intro' does not decode into a level config")
		return nil
	}
	level, err := g.levels.Payload("intro")
	if err != nil {
		return err
	}
	core.LogInfo("level '%s' spawns at (%.0f, %.0f) with music '%s'",
		level.Title, level.Spawn.X, level.Spawn.Y, level.Music.Path)
	return nil
}

func (g *TestGame) Shutdown() error {
	if g.levels != nil {
		g.levels.Release()
	}

	s := g.state()
	s.mu.Lock()
	defer s.mu.Unlock()
	core.LogInfo("%s ran for %s: %d loaded, %d failed, %d reloads", g.ApplicationConfig.Name,
		units.HumanDuration(time.Duration(s.elapsed*float64(time.Second))), s.loaded, s.failed, s.reloaded)
	if s.failed > 0 {
		return fmt.Errorf("%d asset(s) failed to load", s.failed)
	}
	return nil
}
