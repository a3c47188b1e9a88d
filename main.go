// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Acctvault.
//
// Usage:
//
//	go run . [flags]
//	./acctvault [flags]
//
// This launches the Acctvault CLI. See --help for options.
package main

import (
	"fmt"
	"os"

	"github.com/toeirei/acctvault/ui/cli"
)

// main is the entrypoint for the Acctvault CLI.
func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorMessage(err))
		os.Exit(cli.ExitCode(err))
	}
}
