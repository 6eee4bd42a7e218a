package cli

import (
	"fmt"

	"batch-ingestor/api/client"
	"batch-ingestor/core/models"

	"github.com/spf13/cobra"
)

func newJobsCmd(newClient func() *client.Client) *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List ingestion jobs",
		Long: `List ingestion jobs, most recent first.

Examples:
  ingestctl jobs
  ingestctl jobs --status partially_failed --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := newClient().Jobs(cmd.Context(), models.JobStatus(status), limit)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}

			fmt.Fprintf(out, "%-36s %-16s %-8s %-8s %s\n", "ID", "STATUS", "PRIORITY", "BATCHES", "CREATED")
			fmt.Fprintln(out, "--------------------------------------------------------------------------------------------")
			for _, job := range jobs {
				fmt.Fprintf(out, "%-36s %-16s %-8s %-8d %s\n",
					job.IngestionID, job.Status, job.Priority, job.Batches, job.CreatedAt.Format("15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of jobs")
	return cmd
}
