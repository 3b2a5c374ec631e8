package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/record"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	AssignIDs bool
	Hash      bool // print the content hash after the record
}

// EncodeResult holds the encoded form of a record.
type EncodeResult struct {
	Type   string         `json:"type"`
	Hash   string         `json:"hash"`
	Record map[string]any `json:"record"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <Type> <file|->",
		Short: "Construct a record and print its canonical encoding",
		Long: `Construct a record from JSON and print its encoded form as canonical
JSON: sorted keys, timestamps as RFC 3339 text, enumerations as their
values and nested records as their identifiers.

Two inputs that construct equal records always encode to identical bytes.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.AssignIDs, "assign-ids", false, "assign ids and timestamps to records that lack them")
	cmd.Flags().BoolVar(&opts.Hash, "hash", false, "also print the content hash")

	return cmd
}

func runEncode(opts *EncodeOptions, args []string, cmd *cobra.Command) error {
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
	for _, w := range c.warningText() {
		formatter.VerboseLog("warning: %s", w)
	}

	result := EncodeResult{Type: t.Name, Hash: enc.Hash, Record: enc.Body}
	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintln(w, string(enc.JSON))
		if opts.Hash {
			fmt.Fprintln(w, enc.Hash)
		}
	})
}
