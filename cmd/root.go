// Package cmd wires configuration, logging, the message backend client and the
// write journal into the chatdesk command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the TUI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatdesk",
		Short: "Terminal client for a REST message backend",
		Long: `chatdesk lists, sends, edits and deletes messages stored by a
remote HTTP backend. Without a subcommand it opens a full-screen UI.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTUI,
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().String("base-url", "", "message backend base URL (overrides config and CHATDESK_BASE_URL)")

	root.AddCommand(
		newTUICommand(),
		newListCommand(),
		newSendCommand(),
		newEditCommand(),
		newDeleteCommand(),
		newJournalCommand(),
		newDiscoverCommand(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
