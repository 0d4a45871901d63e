//go:build mage

// Package main provides build targets for the lexicon project using Mage.
//
// Usage:
//
//	mage build       Compile the lexicon binary to bin/
//	mage test:all    Run every test
//	mage test:short  Run tests in -short mode
//	mage test:cover  Run tests with a coverage profile
//	mage lint        Run go vet and golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install lexicon to GOPATH/bin
//	mage stats       Print Go lines of code per package
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "lexicon"
	binaryDir   = "bin"
	cmdDir      = "./cmd/lexicon"
	versionFlag = "github.com/mesh-intelligence/lexicon/internal/cli.Version"
)

// Build compiles the lexicon binary to bin/, stamping the version from
// the nearest git tag when one exists.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := gitVersion(); v != "" {
		args = append(args, "-ldflags", "-X "+versionFlag+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	if err := os.Remove(coverProfile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// gitVersion returns the latest tag without its leading "v", or "" outside
// a tagged git checkout.
func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--abbrev=0")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(out), "v")
}
