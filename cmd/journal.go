package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"chatdesk/config"
	"chatdesk/storage"
)

func newJournalCommand() *cobra.Command {
	var (
		failedOnly bool
		events     bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show journaled writes or failure events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfgPath, err := config.LoadOrCreate()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, _, err := storage.Open(dataDirOf(cfgPath))
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if events {
				list, err := store.GetDiagnosticEvents(storage.DiagnosticEventFilter{Limit: limit})
				if err != nil {
					return err
				}
				return writeEvents(cmd.OutOrStdout(), list)
			}

			filter := storage.WriteFilter{Limit: limit}
			if failedOnly {
				filter.Status = storage.WriteStatusFailed
			}
			writes, err := store.GetWrites(filter)
			if err != nil {
				return err
			}
			return writeWrites(cmd.OutOrStdout(), writes)
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only show failed writes")
	cmd.Flags().BoolVar(&events, "events", false, "show failure events instead of writes")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")
	return cmd
}

func writeWrites(w io.Writer, writes []storage.WriteRecord) error {
	if len(writes) == 0 {
		_, err := fmt.Fprintln(w, "No journaled writes.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOP\tSTATUS\tMESSAGE ID\tREQUEST ID\tERROR")
	for _, record := range writes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			formatMillis(record.StartedAt),
			record.Operation,
			record.Status,
			deref(record.MessageID),
			record.RequestID,
			deref(record.Error),
		)
	}
	return tw.Flush()
}

func writeEvents(w io.Writer, events []storage.DiagnosticEvent) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No failure events.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSEVERITY\tMESSAGE ID\tDETAILS")
	for _, event := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			formatMillis(event.Timestamp),
			event.EventType,
			event.Severity,
			deref(event.MessageID),
			event.Details,
		)
	}
	return tw.Flush()
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format(time.DateTime)
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
