//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed against the sample asset tree.
func (Run) Testbed() error {
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-config", "testbed/assets/anima.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed with hot reload enabled. Edit any file under
// testbed/assets to see it reloaded.
func (Run) Watch() error {
	fmt.Println("Run testbed with hot reload...")
	_, err := executeCmd("go",
		withArgs("run", "main.go", "-config", "testbed/assets/anima.toml"),
		withEnv("ANIMA_ASSETS_WATCH=true"),
		withStream(),
	)
	return err
}
