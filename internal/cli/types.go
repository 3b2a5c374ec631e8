package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// TypeSummary is one row of the types listing.
type TypeSummary struct {
	Name      string   `json:"name"`
	Doc       string   `json:"doc"`
	Fields    int      `json:"fields"`
	Templates []string `json:"templates,omitempty"`
}

// EnumSummary is one enumeration in the types listing.
type EnumSummary struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// TypesResult holds the output of the types command.
type TypesResult struct {
	Types []TypeSummary `json:"types"`
	Enums []EnumSummary `json:"enums"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List record types and enumerations",
		Long: `List every declared record type in declaration order, with its
templates, followed by every enumeration and its values.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd)
		},
	}
	return cmd
}

func runTypes(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := opts.registry()
	if err != nil {
		return loadErrorResponse(formatter, err)
	}

	result := TypesResult{Types: []TypeSummary{}, Enums: []EnumSummary{}}
	for _, t := range reg.Types() {
		result.Types = append(result.Types, TypeSummary{
			Name:      t.Name,
			Doc:       t.Doc,
			Fields:    len(t.Fields),
			Templates: reg.Templates(t.Name),
		})
	}
	for _, e := range reg.Enums() {
		result.Enums = append(result.Enums, EnumSummary{Name: e.Name, Values: e.Values()})
	}

	return formatter.Render(result, func(w io.Writer) {
		for _, t := range result.Types {
			fmt.Fprintf(w, "%-24s %s\n", t.Name, firstLine(t.Doc))
			if len(t.Templates) > 0 {
				fmt.Fprintf(w, "%-24s templates: %s\n", "", strings.Join(t.Templates, ", "))
			}
		}
		if len(result.Enums) > 0 {
			fmt.Fprintln(w)
			for _, e := range result.Enums {
				fmt.Fprintf(w, "%-24s %s\n", e.Name, strings.Join(e.Values, " | "))
			}
		}
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
