package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/queryir"
	"github.com/roach88/joe/internal/record"
)

// ListResult holds the stored identifiers of one type.
type ListResult struct {
	Type  string   `json:"type"`
	Where []string `json:"where,omitempty"`
	IDs   []string `json:"ids"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var where []string
	var limit int

	cmd := &cobra.Command{
		Use:   "list <Type>",
		Short: "List stored record identifiers in write order",
		Long: `List stored record identifiers in write order.

--where filters on a field value, parsed as YAML and coerced to the field's
type. A dotted path follows reference fields:

  joe list Mission --where name=Apollo --where created_by.name=Acme`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], where, limit, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&where, "where", nil, "filter field=value (repeatable, all must match)")
	cmd.Flags().IntVar(&limit, "limit", 0, "return at most N identifiers (0 = all)")

	return cmd
}

func runList(opts *RootOptions, typeName string, where []string, limit int, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, "--limit must not be negative", nil)
	}

	reg, t, err := lookupType(formatter, opts, typeName)
	if err != nil {
		return err
	}

	var query queryir.Query
	if len(where) > 0 || limit > 0 {
		query, err = buildQuery(opts, t, where, reg.Lookup)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), map[string]any{"where": where})
		}
	}

	st, err := openStore(formatter, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	var ids []string
	if query == nil {
		ids, err = st.List(cmd.Context(), t.Name)
	} else {
		ids, err = st.Find(cmd.Context(), query, limit)
	}
	if err != nil {
		return storeErrorResponse(formatter, err)
	}

	result := ListResult{Type: t.Name, Where: where, IDs: ids}
	return formatter.Render(result, func(w io.Writer) {
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
		formatter.VerboseLog("%d %s record(s)", len(ids), t.Name)
	})
}

// buildQuery turns --where flags into a validated query on t.
func buildQuery(opts *RootOptions, t *record.Type, where []string, lookup queryir.Lookup) (queryir.Query, error) {
	conds := make([]queryir.Condition, 0, len(where))
	for _, pair := range where {
		path, v, err := parseAssignment("--where", pair)
		if err != nil {
			return nil, err
		}
		conds = append(conds, queryir.Condition{Path: path, Value: v})
	}

	var c construction
	query, err := queryir.Build(t, conds, c.options(opts, false)...)
	if err != nil {
		return nil, err
	}
	if err := queryir.Validate(query, lookup).Err(); err != nil {
		return nil, err
	}
	return query, nil
}
