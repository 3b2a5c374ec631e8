package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/ir"
	"github.com/roach88/joe/internal/record"
)

// maxFixtures bounds how many fixtures the command materializes.
const maxFixtures = 100000

// FixturesOptions holds flags for the fixtures command.
type FixturesOptions struct {
	*RootOptions
	Typed bool // coerce values before printing
	Count bool // print only the size of the fixture set
	Limit int  // print at most this many fixtures
}

// FixturesResult holds the output of the fixtures command.
type FixturesResult struct {
	Type     string           `json:"type"`
	Total    int              `json:"total"`
	Fixtures []map[string]any `json:"fixtures,omitempty"`
}

// NewFixturesCommand creates the fixtures command.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FixturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fixtures <Type>",
		Short: "Generate the fixture set of a record type",
		Long: `Print the Cartesian product of representative field values of a
record type, one canonical JSON object per line. A field contributes null
when it is nullable, every member when it is an enumeration, and the
type's example value otherwise.

With --typed every value is coerced first, so timestamps are normalized
and nested records carry their identifiers.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Typed, "typed", false, "coerce fixture values to their field types")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the number of fixtures")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most this many fixtures (0 = all)")

	return cmd
}

func runFixtures(opts *FixturesOptions, typeName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, t, err := lookupType(formatter, opts.RootOptions, typeName)
	if err != nil {
		return err
	}

	result := FixturesResult{Type: t.Name, Total: record.FixtureCount(t)}
	if opts.Count {
		return formatter.Render(result, func(w io.Writer) {
			fmt.Fprintln(w, result.Total)
		})
	}
	if result.Total > maxFixtures {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("%s has %d fixtures (max %d); use --count", t.Name, result.Total, maxFixtures), nil)
	}

	fixtures, err := buildFixtures(opts, t)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	if opts.Limit > 0 && len(fixtures) > opts.Limit {
		fixtures = fixtures[:opts.Limit]
	}
	result.Fixtures = fixtures

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, fx := range fixtures {
		line, err := ir.MarshalCanonical(fx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
		}
		fmt.Fprintln(formatter.Writer, string(line))
	}
	formatter.VerboseLog("%d of %d fixture(s)", len(fixtures), result.Total)
	return nil
}

// buildFixtures returns the fixture set as plain JSON values.
func buildFixtures(opts *FixturesOptions, t *record.Type) ([]map[string]any, error) {
	if !opts.Typed {
		return record.Fixtures(t)
	}

	var c construction
	typed, err := record.TypedFixtures(t, c.options(opts.RootOptions, false)...)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(typed))
	for i, fx := range typed {
		obj := make(ir.IRObject, len(fx))
		for name, v := range fx {
			ev, err := record.EncodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("fixture %d field %s: %w", i, name, err)
			}
			obj[name] = ev
		}
		out[i], _ = ir.ToAny(obj).(map[string]any)
	}
	return out, nil
}
