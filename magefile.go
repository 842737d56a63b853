//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "qb2anki"

// Default target to run when none is specified
var Default = Build

// Build compiles the qb2anki binary into the repository root
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/qb2anki")
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install copies the binary to $GOPATH/bin
func Install() error {
	mg.Deps(Build)

	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return fmt.Errorf("failed to get GOPATH: %w", err)
	}
	dest := filepath.Join(gopath, "bin", binary)
	fmt.Println("Installing to", dest)
	return sh.Copy(dest, binary)
}

// Clean removes build artifacts
func Clean() error {
	return os.RemoveAll(binary)
}
