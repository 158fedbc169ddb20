// Package main is the entry point for the shipgate CLI binary.
package main

import (
	"os"

	"github.com/irahardianto/shipgate/cmd/shipgate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
