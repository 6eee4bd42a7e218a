package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"batch-ingestor/api/client"
	"batch-ingestor/api/rest/handlers"

	"github.com/spf13/cobra"
)

func newStatusCmd(newClient func() *client.Client) *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "status <ingestion-id>",
		Short: "Show the status of an ingestion job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			status, err := c.Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), status)

			if !events {
				return nil
			}
			history, err := c.Events(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get events: %w", err)
			}
			printEvents(cmd.OutOrStdout(), history)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&events, "events", "e", false, "also print the transition history")
	return cmd
}

func newWatchCmd(newClient func() *client.Client) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <ingestion-id>",
		Short: "Follow an ingestion job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkInterval(interval); err != nil {
				return err
			}
			return watchJob(cmd, newClient(), args[0], interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval")
	return cmd
}

func checkInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	return nil
}

// watchJob prints a line whenever the aggregate or any batch status changes
func watchJob(cmd *cobra.Command, c *client.Client, id string, interval time.Duration) error {
	out := cmd.OutOrStdout()
	last := ""

	final, err := c.Watch(cmd.Context(), id, interval, func(s *handlers.StatusResponse) {
		line := summarize(s)
		if line != last {
			fmt.Fprintf(out, "%s  %s\n", time.Now().Format("15:04:05"), line)
			last = line
		}
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	printStatus(out, final)
	return nil
}

func summarize(s *handlers.StatusResponse) string {
	parts := make([]string, len(s.Batches))
	for i, b := range s.Batches {
		parts[i] = string(b.Status)
	}
	return fmt.Sprintf("%-16s [%s]", s.Status, strings.Join(parts, " "))
}

func printStatus(w io.Writer, s *handlers.StatusResponse) {
	fmt.Fprintf(w, "Ingestion: %s\n", s.IngestionID)
	fmt.Fprintf(w, "  Status: %s\n", s.Status)
	fmt.Fprintf(w, "  Priority: %s\n", s.Priority)
	fmt.Fprintf(w, "  Created: %s\n", s.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  Batches:\n")
	for _, b := range s.Batches {
		fmt.Fprintf(w, "    %-36s %-12s %v", b.BatchID, b.Status, b.IDs)
		if b.Error != "" {
			fmt.Fprintf(w, "  error: %s", b.Error)
		}
		fmt.Fprintln(w)
	}
}

func printEvents(w io.Writer, e *handlers.EventsResponse) {
	fmt.Fprintf(w, "Events:\n")
	for _, ev := range e.Items {
		from := "-"
		if ev.FromStatus != nil {
			from = string(*ev.FromStatus)
		}
		fmt.Fprintf(w, "  %s  %-36s %-12s -> %-12s job=%-16s %s\n",
			ev.At.Format("15:04:05.000"), ev.BatchID, from, ev.ToStatus, ev.JobStatus, ev.Reason)
	}
}
