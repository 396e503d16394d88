package main

import (
	"os"

	"github.com/matzehuels/flowgrid/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
