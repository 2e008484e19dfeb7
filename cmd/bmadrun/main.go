// Package main provides the entry point for the bmadrun CLI.
package main

import (
	"fmt"
	"os"

	"github.com/bmadforge/runtime/cmd/bmadrun/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
