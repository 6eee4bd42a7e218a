// Package main provides the entry point for the ingestctl CLI.
package main

import (
	"fmt"
	"os"

	"batch-ingestor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
