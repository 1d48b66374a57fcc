//go:build mage

// Package main provides build targets for geotask using Mage.
//
// Usage:
//
//	mage build          Compile the geotask binary to bin/
//	mage test:all       Run all tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write coverage.out and print the total
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage clean          Remove build artifacts
//	mage install        Install geotask to GOPATH/bin
package main

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "geotask"
	binaryDir  = "bin"
	cmdDir     = "./cmd/geotask"
	modulePath = "github.com/mesh-intelligence/geotask"
	coverFile  = "coverage.out"
)
