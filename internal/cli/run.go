package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/conduit/internal/harness"
	"github.com/roach88/conduit/internal/journal"
	"github.com/roach88/conduit/internal/trace"
)

// RunReport summarizes one scenario run for CLI output.
type RunReport struct {
	Scenario string   `json:"scenario"`
	Passed   bool     `json:"passed"`
	Events   int      `json:"events"`
	Errors   []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var recordPath string

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenarios against a fresh store",
		Long: `Run one or more scenario files against a fresh in-memory store.

Each scenario drives the dispatch loop with its flow of document actions,
then checks its assertions against the recorded trace, callback activity,
and final state. With --record, the trace of every run is appended to a
SQLite journal for later inspection with the trace command.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, recordPath, cmd)
		},
	}

	cmd.Flags().StringVar(&recordPath, "record", "", "append traces to a SQLite journal at this path")

	return cmd
}

func runScenarios(opts *RootOptions, paths []string, recordPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var jnl *journal.Journal
	if recordPath != "" {
		var err error
		jnl, err = journal.Open(recordPath)
		if err != nil {
			_ = formatter.Error("E101", err.Error(), nil)
			return WrapExitError(ExitCommandError, "open journal", err)
		}
		defer jnl.Close()
	}

	var reports []RunReport
	failed := 0
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			_ = formatter.Error("E102", fmt.Sprintf("%s: %v", path, err), nil)
			return WrapExitError(ExitCommandError, "load scenario", err)
		}

		formatter.VerboseLog("Running scenario %s (%d flow steps)", scenario.Name, len(scenario.Flow))

		result, err := harness.Run(scenario)
		if err != nil {
			_ = formatter.Error("E103", fmt.Sprintf("%s: %v", scenario.Name, err), nil)
			return WrapExitError(ExitCommandError, "run scenario", err)
		}

		if jnl != nil {
			snapshot := trace.Snapshot{Scenario: scenario.Name, Events: result.Events}
			if err := jnl.WriteSnapshot(cmd.Context(), snapshot); err != nil {
				_ = formatter.Error("E104", err.Error(), nil)
				return WrapExitError(ExitCommandError, "record trace", err)
			}
		}

		if !result.Passed() {
			failed++
		}
		reports = append(reports, RunReport{
			Scenario: scenario.Name,
			Passed:   result.Passed(),
			Events:   len(result.Events),
			Errors:   result.Errors,
		})
	}

	if err := outputReports(formatter, reports); err != nil {
		return err
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", failed, len(reports)))
	}
	return nil
}

func outputReports(formatter *OutputFormatter, reports []RunReport) error {
	if formatter.Format == "json" {
		return formatter.Success(reports)
	}

	for _, r := range reports {
		if r.Passed {
			fmt.Fprintf(formatter.Writer, "✓ %s (%d events)\n", r.Scenario, r.Events)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s (%d events)\n", r.Scenario, r.Events)
		for _, msg := range r.Errors {
			fmt.Fprintf(formatter.Writer, "    %s\n", msg)
		}
	}
	return nil
}
