package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conduit/internal/journal"
	"github.com/roach88/conduit/internal/trace"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "trace <journal.db> [scenario]",
		Short: "Inspect a recorded trace journal",
		Long: `Inspect a SQLite trace journal written by run --record.

Without a scenario argument, lists the recorded scenarios. With one,
prints that scenario's events in processing order. With --verify, each
event's content hash is recomputed and checked against its stored ID.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := ""
			if len(args) == 2 {
				scenario = args[1]
			}
			return runTrace(rootOpts, args[0], scenario, verify, cmd)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check stored event hashes against their content")

	return cmd
}

func runTrace(opts *RootOptions, dbPath, scenario string, verify bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error("E201", fmt.Sprintf("journal not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, "open journal", err)
	}

	jnl, err := journal.Open(dbPath)
	if err != nil {
		_ = formatter.Error("E201", err.Error(), nil)
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer jnl.Close()

	ctx := cmd.Context()

	if scenario == "" {
		names, err := jnl.Scenarios(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "list scenarios", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(names)
		}
		for _, n := range names {
			fmt.Fprintln(formatter.Writer, n)
		}
		return nil
	}

	if verify {
		if err := jnl.Verify(ctx, scenario); err != nil {
			_ = formatter.Error("E202", err.Error(), nil)
			return NewExitError(ExitFailure, "journal verification failed")
		}
		formatter.VerboseLog("Hashes verified for %s", scenario)
	}

	events, err := jnl.ReadEvents(ctx, scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "read events", err)
	}
	if len(events) == 0 {
		_ = formatter.Error("E203", fmt.Sprintf("no events recorded for scenario %q", scenario), nil)
		return NewExitError(ExitCommandError, "unknown scenario")
	}

	return outputEvents(formatter, events)
}

func outputEvents(formatter *OutputFormatter, events []trace.Event) error {
	if formatter.Format == "json" {
		return formatter.Success(events)
	}

	for _, e := range events {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] %s changed=%t notified=%d", e.Seq, e.Action, e.Changed, e.Notified)
		if e.Token != "" {
			fmt.Fprintf(&b, " token=%s", e.Token)
		}
		if e.Error != "" {
			fmt.Fprintf(&b, " error=%q", e.Error)
		}
		fmt.Fprintln(formatter.Writer, b.String())
	}
	return nil
}
