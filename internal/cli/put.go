package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/record"
)

// PutResult holds the outcome of storing a record graph.
type PutResult struct {
	Type     string   `json:"type"`
	ID       string   `json:"id"`
	Hash     string   `json:"hash"`
	Written  int      `json:"written"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <Type> <file|->",
		Short: "Construct a record and write its graph to the store",
		Long: `Construct a record from JSON and write it, with every record nested in
it, to the SQLite store named by --db. Records without an id get a
random UUID and the current time.

Writing identical content again is a no-op. A record whose id is already
stored with different content is rejected and nothing is written.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runPut(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, t, err := lookupType(formatter, opts, args[0])
	if err != nil {
		return err
	}
	data, err := readInput(formatter, cmd.InOrStdin(), args[1])
	if err != nil {
		return err
	}

	var c construction
	in, err := record.Decode(t, data, c.options(opts, true)...)
	if err != nil {
		return constructionErrorResponse(formatter, err)
	}
	enc, err := encodeRecord(in)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	st, err := openStore(formatter, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	written, err := st.Put(cmd.Context(), in)
	if err != nil {
		return storeErrorResponse(formatter, err)
	}
	formatter.VerboseLog("Wrote %d row(s) to %s", written, opts.DB)

	result := PutResult{
		Type:     t.Name,
		ID:       in.ID,
		Hash:     enc.Hash,
		Written:  written,
		Warnings: c.warningText(),
	}
	return formatter.Render(result, func(w io.Writer) {
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		fmt.Fprintf(w, "✓ %s %s stored (%d new)\n", result.Type, result.ID, result.Written)
	})
}
