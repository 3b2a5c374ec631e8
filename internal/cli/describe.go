package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/record"
)

// DescribeResult holds the output of the describe command.
type DescribeResult struct {
	Name      string             `json:"name"`
	Doc       string             `json:"doc"`
	Fields    []record.FieldInfo `json:"fields"`
	Checks    []string           `json:"checks"`
	Templates []string           `json:"templates"`
	Fixtures  int                `json:"fixtures"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <Type>",
		Short: "Show the fields, checks and templates of a record type",
		Long: `Show the field table of a record type, base fields first, with each
field's signature, nullability and default. Also lists the invariant
checks run after construction, the declared templates and the number of
fixtures the type generates.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDescribe(opts *RootOptions, typeName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, t, err := lookupType(formatter, opts, typeName)
	if err != nil {
		return err
	}

	result := DescribeResult{
		Name:      t.Name,
		Doc:       t.Doc,
		Fields:    record.Describe(t),
		Checks:    []string{},
		Templates: reg.Templates(t.Name),
		Fixtures:  record.FixtureCount(t),
	}
	for _, c := range t.Checks {
		result.Checks = append(result.Checks, c.Name)
	}

	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Name)
		if result.Doc != "" {
			fmt.Fprintf(w, "  %s\n", result.Doc)
		}
		fmt.Fprintln(w)
		for _, f := range result.Fields {
			line := fmt.Sprintf("  %-28s %s", f.Name, f.Signature)
			if f.HasDefault {
				line += fmt.Sprintf(" = %v", f.Default)
			}
			fmt.Fprintln(w, line)
		}
		if len(result.Checks) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Checks:")
			for _, c := range result.Checks {
				fmt.Fprintf(w, "  %s\n", c)
			}
		}
		if len(result.Templates) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Templates:")
			for _, name := range result.Templates {
				fmt.Fprintf(w, "  %s\n", name)
			}
		}
		fmt.Fprintf(w, "\nFixtures: %d\n", result.Fixtures)
	})
}
