package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatdesk/models"
	"chatdesk/ui"
)

func newListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every message in backend order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print messages as JSON")
	return cmd
}

func runList(cmd *cobra.Command, asJSON bool) error {
	a, err := openApp(cmd, appOptions{console: true})
	if err != nil {
		return err
	}
	defer a.Close()

	state, err := ui.NewController(a.runner).Dispatch(commandContext(cmd), ui.Mount{})
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), state)
	}
	return writeMessages(cmd.OutOrStdout(), state, a.cfg.SelfSender)
}

func writeMessages(w io.Writer, state ui.State, selfSender string) error {
	if len(state.Messages) == 0 {
		_, err := fmt.Fprintln(w, "No messages.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSENDER\tMESSAGE")
	for _, entry := range state.Messages {
		sender := entry.Sender
		if sender == "" {
			sender = "-"
		} else if sender == selfSender {
			sender += " (you)"
		}
		body := strings.ReplaceAll(entry.Message.Message, "\n", " ")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.ID, sender, body)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, state ui.State) error {
	messages := make([]models.Message, 0, len(state.Messages))
	for _, entry := range state.Messages {
		messages = append(messages, entry.Message)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(messages)
}
