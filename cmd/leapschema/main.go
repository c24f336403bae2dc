// Package main provides the CLI for the LeapSchema schema comparison tool.
package main

import (
	"os"

	"github.com/leapstack-labs/leapschema/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
