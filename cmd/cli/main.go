// Package main is the entry point for the shipalloc CLI.
package main

import (
	"os"

	"shipalloc/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
