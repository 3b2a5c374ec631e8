package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/compiler"
)

// CheckResult holds declaration validation results.
type CheckResult struct {
	Valid  bool                       `json:"valid"`
	Types  int                        `json:"types"`
	Enums  int                        `json:"enums"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate record declarations",
		Long: `Compile the record declarations and check them beyond compilation:
every type is documented, every example and template constructs and
passes its checks, and every default coerces to its field.

Checks the built-in model unless --schemas names a directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Schemas != "" {
		formatter.VerboseLog("Loading declarations from %s", opts.Schemas)
	}
	reg, err := opts.registry()
	if err != nil {
		return loadErrorResponse(formatter, err)
	}

	result := CheckResult{
		Types:  len(reg.Types()),
		Enums:  len(reg.Enums()),
		Errors: compiler.Validate(reg),
	}
	result.Valid = len(result.Errors) == 0
	formatter.VerboseLog("Checked %d type(s), %d enumeration(s)", result.Types, result.Enums)

	if result.Valid {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ All declarations valid (%d types, %d enums)\n", result.Types, result.Enums)
		return nil
	}

	return outputCheckErrors(formatter, result)
}

// outputCheckErrors outputs multiple validation errors.
func outputCheckErrors(formatter *OutputFormatter, result CheckResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d error(s)", len(errs)))
}
