/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-assets/engine"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/testbed"
)

func main() {
	configPath := flag.String("config", "testbed/assets/anima.toml", "path of the engine configuration file")
	flag.Parse()

	tb := testbed.NewTestGame(*configPath)

	e, err := engine.NewFromConfigFile(tb.Game)
	if err != nil {
		os.Exit(1)
	}

	if err := e.Initialize(); err != nil {
		core.LogError("initialization failed: %s", err)
		_ = e.Shutdown()
		os.Exit(1)
	}

	// cancel the run loop on sigterm and other system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
