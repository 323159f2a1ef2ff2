// Package main provides the entry point for the ragsift CLI.
package main

import (
	"os"

	"github.com/ragsift/ragsift/cmd/ragsift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
