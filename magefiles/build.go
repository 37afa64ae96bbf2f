//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Runs go mod download and then builds the testbed binary into bin/.
func (Build) Testbed() error {
	if err := goModDownload(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-testbed", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the unit tests of every package.
func (Build) Test() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
