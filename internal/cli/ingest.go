package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"batch-ingestor/api/client"
	"batch-ingestor/core/models"

	"github.com/spf13/cobra"
)

func newIngestCmd(newClient func() *client.Client) *cobra.Command {
	var (
		priority string
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ingest <id>...",
		Short: "Submit ids for ingestion",
		Long: `Submit ids for ingestion and print the ingestion id.

IDs may be given as separate arguments or comma separated.

Examples:
  ingestctl ingest 1 2 3 4 5
  ingestctl ingest 1,2,3 -p HIGH --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			p := models.Priority(strings.ToUpper(priority))
			if p != "" && !p.Valid() {
				return fmt.Errorf("invalid priority %q (valid: HIGH, MEDIUM, LOW)", priority)
			}
			if watch {
				if err := checkInterval(interval); err != nil {
					return err
				}
			}

			c := newClient()
			id, err := c.Ingest(cmd.Context(), ids, p)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)

			if !watch {
				return nil
			}
			return watchJob(cmd, c, id, interval)
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority: HIGH, MEDIUM or LOW (server default MEDIUM)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "follow the job until it finishes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval when watching")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}
