// Package main provides the fraudscan command-line tool.
package main

import (
	"os"

	"github.com/claimwatch/fraudscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
