package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/joe/internal/record"
)

// TemplateOptions holds flags for the template command.
type TemplateOptions struct {
	*RootOptions
	Set []string // field=value overrides
}

// TemplateResult holds a record built from a template.
type TemplateResult struct {
	Type     string         `json:"type"`
	Template string         `json:"template,omitempty"`
	Hash     string         `json:"hash"`
	Record   map[string]any `json:"record"`
	Warnings []string       `json:"warnings,omitempty"`
}

// NewTemplateCommand creates the template command.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TemplateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "template <Type> [name]",
		Short: "Build a record from the type example and a named template",
		Long: `Build a new record starting from the type's example, overlaid by the
named template, overlaid by --set overrides. The record gets a fresh id
and timestamps. Without a name only the example and overrides apply.

Override values are parsed as YAML, so numbers, lists and maps can be
given inline.

Examples:
  joe template Orbit SSO-LEO
  joe template Bus 6U --set mass=9.5
  joe template Orbit --set 'semi_major_axis=7000' --set 'inclination=45'`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "override a field (field=value, repeatable)")

	return cmd
}

func runTemplate(opts *TemplateOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, t, err := lookupType(formatter, opts.RootOptions, args[0])
	if err != nil {
		return err
	}
	var name string
	if len(args) == 2 {
		name = args[1]
		if _, ok := reg.Template(t.Name, name); !ok {
			return formatter.Fail(ExitCommandError, ErrCodeUnknownTemplate,
				fmt.Sprintf("no template %q for %s", name, t.Name),
				map[string]any{"templates": reg.Templates(t.Name)})
		}
	}

	overrides, err := parseOverrides(opts.Set)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	raw, err := reg.Instantiate(t.Name, name, overrides)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownTemplate, err.Error(), nil)
	}

	var c construction
	in, err := record.Construct(t, raw, c.options(opts.RootOptions, true)...)
	if err != nil {
		return constructionErrorResponse(formatter, err)
	}
	enc, err := encodeRecord(in)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	result := TemplateResult{
		Type:     t.Name,
		Template: name,
		Hash:     enc.Hash,
		Record:   enc.Body,
		Warnings: c.warningText(),
	}
	return formatter.Render(result, func(w io.Writer) {
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
		fmt.Fprintln(w, string(enc.JSON))
	})
}

// parseOverrides turns field=value pairs into a field map. Values are
// YAML scalars or flow collections.
func parseOverrides(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		field, v, err := parseAssignment("--set", pair)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

// parseAssignment splits one field=value flag argument and parses the
// value as YAML.
func parseAssignment(flag, pair string) (string, any, error) {
	field, text, ok := strings.Cut(pair, "=")
	if !ok || field == "" {
		return "", nil, fmt.Errorf("invalid %s %q: expected field=value", flag, pair)
	}
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return "", nil, fmt.Errorf("invalid %s %q: %w", flag, pair, err)
	}
	return field, v, nil
}
