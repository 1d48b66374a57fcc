// Package main provides the geotask CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/mesh-intelligence/geotask/internal/cli"
)

func main() {
	// .env in the working directory may set GEOTASK_* overrides; a missing
	// file is fine and existing variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}
	cli.Execute()
}
