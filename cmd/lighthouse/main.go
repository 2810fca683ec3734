package main

import (
	"os"

	"github.com/melih/lighthouse-build/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
