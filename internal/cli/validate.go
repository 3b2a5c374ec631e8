package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/record"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	AssignIDs bool // fill absent ids and timestamps
}

// ValidationResult holds the outcome of validating one record.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Type     string   `json:"type"`
	ID       string   `json:"id"`
	Hash     string   `json:"hash"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <Type> <file|->",
		Short: "Construct a record from JSON and report whether it is valid",
		Long: `Decode a JSON object as a record of the given type. Every field is
coerced to its declared signature and every invariant check runs.

Reports the first construction error with its code and field path.
Numeric casts that lose precision are reported as warnings.

Exit codes:
  0 - Record is valid
  1 - Record rejected
  2 - Command error (unknown type, unreadable file)

Examples:
  joe validate Orbit orbit.json
  cat ticket.json | joe validate PropagationTicket - --assign-ids`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.AssignIDs, "assign-ids", false, "assign ids and timestamps to records that lack them")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, t, err := lookupType(formatter, opts.RootOptions, args[0])
	if err != nil {
		return err
	}
	data, err := readInput(formatter, cmd.InOrStdin(), args[1])
	if err != nil {
		return err
	}

	var c construction
	in, err := record.Decode(t, data, c.options(opts.RootOptions, opts.AssignIDs)...)
	if err != nil {
		return constructionErrorResponse(formatter, err)
	}
	enc, err := encodeRecord(in)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	result := ValidationResult{
		Valid:    true,
		Type:     t.Name,
		ID:       in.ID,
		Hash:     enc.Hash,
		Warnings: c.warningText(),
	}
	return formatter.Render(result, func(w io.Writer) {
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		fmt.Fprintf(w, "✓ %s %s valid\n", result.Type, result.ID)
	})
}
