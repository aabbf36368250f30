// Package main provides the Gibson CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

func main() {
	root := &cobra.Command{
		Use:     "gibson",
		Short:   "Gibson - probabilistic graph engine for Go",
		Version: version,
	}
	root.AddCommand(newSprinklerCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
