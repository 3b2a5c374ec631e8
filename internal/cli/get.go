package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/store"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Refs  bool // include reference edges
	Check bool // reconstruct the stored body against the current declarations
}

// RefEntry is one reference edge in get output.
type RefEntry struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Path string `json:"path"`
}

// GetResult holds a stored record.
type GetResult struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Hash       string         `json:"hash"`
	Seq        int64          `json:"seq"`
	Record     map[string]any `json:"record"`
	References []RefEntry     `json:"references,omitempty"`
	Referrers  []RefEntry     `json:"referrers,omitempty"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <Type> <id>",
		Short: "Read a stored record",
		Long: `Print the stored encoding of a record. With --refs also list the records
it references and the records that reference it. With --check the stored
body is constructed again so records that no longer satisfy the current
declarations are reported.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refs, "refs", false, "list references and referrers")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "validate the stored record against the declarations")

	return cmd
}

func runGet(opts *GetOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	_, t, err := lookupType(formatter, opts.RootOptions, args[0])
	if err != nil {
		return err
	}
	id := args[1]

	st, err := openStore(formatter, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(ctx, t.Name, id)
	if err != nil {
		return storeErrorResponse(formatter, err)
	}
	if opts.Check {
		var c construction
		if _, err := st.Load(ctx, t, id, c.options(opts.RootOptions, false)...); err != nil {
			return constructionErrorResponse(formatter, err)
		}
	}

	body, _ := ir.ToAny(rec.Body).(map[string]any)
	result := GetResult{
		Type:   rec.Type,
		ID:     rec.ID,
		Hash:   rec.Hash,
		Seq:    rec.Seq,
		Record: body,
	}
	if opts.Refs {
		refs, err := st.References(ctx, t.Name, id)
		if err != nil {
			return storeErrorResponse(formatter, err)
		}
		referrers, err := st.Referrers(ctx, t.Name, id)
		if err != nil {
			return storeErrorResponse(formatter, err)
		}
		result.References = refEntries(refs)
		result.Referrers = refEntries(referrers)
	}

	text, err := ir.MarshalCanonical(rec.Body)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintln(w, string(text))
		if !opts.Refs {
			return
		}
		for _, r := range result.References {
			fmt.Fprintf(w, "  %s -> %s %s\n", r.Path, r.Type, r.ID)
		}
		for _, r := range result.Referrers {
			fmt.Fprintf(w, "  <- %s %s (%s)\n", r.Type, r.ID, r.Path)
		}
	})
}

func refEntries(refs []store.Ref) []RefEntry {
	out := make([]RefEntry, len(refs))
	for i, r := range refs {
		out[i] = RefEntry{Type: r.Type, ID: r.ID, Path: r.Path}
	}
	return out
}
