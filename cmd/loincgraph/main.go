// Package main provides the loincgraph CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/loincgraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
