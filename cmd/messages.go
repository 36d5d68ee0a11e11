package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatdesk/network"
	"chatdesk/ui"
)

func newSendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a new message",
		Long:  "Send joins its arguments with spaces. An empty message is sent as-is.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(cmd, func(ui.State, bool) ([]ui.Action, error) {
				return []ui.Action{
					ui.ComposeChanged{Text: strings.Join(args, " ")},
					ui.Send{},
				}, nil
			}, func(before, after ui.State, listed bool) string {
				if !listed {
					return "sent"
				}
				if ids := addedIDs(before, after); len(ids) > 0 {
					return "sent " + strings.Join(ids, ", ")
				}
				return "sent"
			})
		},
	}
}

func newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the body of a message",
		Long:  "Edit needs the message list: the new body is staged on the listed row before it is saved.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runActions(cmd, func(_ ui.State, listed bool) ([]ui.Action, error) {
				if !listed {
					return nil, fmt.Errorf("edit %s: message list unavailable", id)
				}
				return []ui.Action{
					ui.ToggleEdit{ID: id},
					ui.EditChanged{ID: id, Value: strings.Join(args[1:], " ")},
					ui.Save{ID: id},
				}, nil
			}, func(ui.State, ui.State, bool) string {
				return "updated " + id
			})
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return runActions(cmd, func(ui.State, bool) ([]ui.Action, error) {
				return []ui.Action{ui.Delete{ID: id}}, nil
			}, func(ui.State, ui.State, bool) string {
				return "deleted " + id
			})
		},
	}
}

type (
	buildFunc   func(before ui.State, listed bool) ([]ui.Action, error)
	summaryFunc func(before, after ui.State, listed bool) string
)

// runActions loads the list, dispatches the actions built from it and prints a
// summary followed by the current list. A failed list only leaves the list
// stale and is logged; the exit status follows the writes, stopping at the
// first one that fails.
func runActions(cmd *cobra.Command, build buildFunc, summary summaryFunc) error {
	a, err := openApp(cmd, appOptions{console: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	ctrl := ui.NewController(a.runner)

	before, listErr := ctrl.Dispatch(ctx, ui.Mount{})
	listed := listErr == nil
	if !listed {
		a.logger.Warn("message list unavailable, continuing", zap.Error(listErr))
	}

	actions, err := build(before, listed)
	if err != nil {
		return errors.Join(err, listErr)
	}

	after := before
	for _, action := range actions {
		var dispatchErr error
		after, dispatchErr = ctrl.Dispatch(ctx, action)
		refreshErr, writeErr := splitFailures(dispatchErr)
		if writeErr != nil {
			return writeErr
		}
		if refreshErr != nil {
			a.logger.Warn("message list refresh failed", zap.Error(refreshErr))
		}
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, summary(before, after, listed)); err != nil {
		return err
	}
	return writeMessages(out, after, a.cfg.SelfSender)
}

// splitFailures separates list failures, which only make the shown list stale,
// from failures of the writes themselves.
func splitFailures(err error) (listErr, writeErr error) {
	if err == nil {
		return nil, nil
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	var lists, writes []error
	for _, e := range errs {
		var fetchErr *network.FetchError
		if errors.As(e, &fetchErr) && fetchErr.Op == network.OpList {
			lists = append(lists, e)
			continue
		}
		writes = append(writes, e)
	}
	return errors.Join(lists...), errors.Join(writes...)
}

func addedIDs(before, after ui.State) []string {
	seen := make(map[string]struct{}, len(before.Messages))
	for _, entry := range before.Messages {
		seen[entry.ID] = struct{}{}
	}

	var ids []string
	for _, entry := range after.Messages {
		if _, ok := seen[entry.ID]; !ok {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}
