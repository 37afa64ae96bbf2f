package engine

import (
	"github.com/spaghettifunk/anima-assets/engine/config"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

type ApplicationConfig struct {
	// The application name, used in logs.
	Name string
	// ConfigPath is the configuration file read by NewFromConfigFile.
	// Empty means defaults and environment only.
	ConfigPath string
}

// NewFromConfigFile loads the game's configuration file and creates the
// engine from it.
func NewFromConfigFile(g *Game) (*Engine, error) {
	path := ""
	if g != nil && g.ApplicationConfig != nil {
		path = g.ApplicationConfig.ConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		core.LogError("failed to load configuration: %s", err)
		return nil, err
	}
	return New(g, cfg)
}
