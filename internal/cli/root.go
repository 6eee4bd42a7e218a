// Package cli provides the command-line interface for the ingestion server.
package cli

import (
	"batch-ingestor/api/client"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd builds the ingestctl command tree.
func NewRootCmd() *cobra.Command {
	var serverURL string

	rootCmd := &cobra.Command{
		Use:   "ingestctl",
		Short: "Submit and track bulk ingestion jobs",
		Long: `ingestctl talks to a running ingestion server.

IDs are submitted in one request, split server-side into batches and
processed one batch at a time. Use status or watch to follow a job.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL (default $INGEST_SERVER_URL or http://localhost:8000)")

	newClient := func() *client.Client {
		return client.New(serverURL)
	}

	rootCmd.AddCommand(
		newIngestCmd(newClient),
		newStatusCmd(newClient),
		newWatchCmd(newClient),
		newJobsCmd(newClient),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
