package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/spf13/cobra"

	"github.com/roach88/conduit/internal/harness"
)

//go:embed schema.cue
var schemaCUE string

// ValidationIssue describes one problem found in a scenario file.
type ValidationIssue struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files against the embedded schema.

Each file is checked structurally against the CUE scenario schema, then
against the harness parser's semantic rules (per-action required fields,
known assertion types). Faster than run for development feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return WrapExitError(ExitCommandError, "compile embedded schema", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	var issues []ValidationIssue
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		issues = append(issues, validateFile(ctx, def, path)...)
	}

	if len(issues) > 0 {
		return outputValidationIssues(formatter, issues)
	}

	return outputValidateSuccess(formatter, len(paths))
}

// validateFile checks one scenario file against the CUE schema, then the
// harness parser. The schema catches structural problems with positions;
// the parser catches the semantic rules the schema cannot express.
func validateFile(ctx *cue.Context, def cue.Value, path string) []ValidationIssue {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationIssue{{File: path, Message: err.Error()}}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return cueIssues(path, err)
	}

	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return cueIssues(path, err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return cueIssues(path, err)
	}

	if _, err := harness.ParseScenario(data); err != nil {
		return []ValidationIssue{{File: path, Message: err.Error()}}
	}

	return nil
}

// cueIssues converts a CUE error list to validation issues with line info.
func cueIssues(path string, err error) []ValidationIssue {
	var issues []ValidationIssue
	for _, e := range cueerrors.Errors(err) {
		issue := ValidationIssue{File: path, Message: e.Error()}
		if pos := e.Position(); pos.IsValid() {
			issue.Line = pos.Line()
		}
		issues = append(issues, issue)
	}
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{File: path, Message: err.Error()})
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario file(s) valid\n", count)
	return nil
}

// outputValidationIssues outputs validation failures.
func outputValidationIssues(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		if err := formatter.Success(ValidationResult{Valid: false, Issues: issues}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "  %s:%d: %s\n", issue.File, issue.Line, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.File, issue.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
}
