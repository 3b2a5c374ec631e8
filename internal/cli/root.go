package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/joe/internal/compiler"
	"github.com/roach88/joe/internal/model"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Schemas  string // directory of .cue declarations; empty uses the built-in model
	DB       string
	LogLevel string

	errWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the joe CLI.
// Flag defaults come from the environment (see Config).
func NewRootCommand() *cobra.Command {
	cfg, cfgErr := ParseConfig()

	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "joe",
		Short: "joe - typed mission-design records",
		Long:  "Construct, validate, encode and store mission-design records declared in CUE.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return WrapExitError(ExitCommandError, "invalid environment", cfgErr)
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := parseLevel(opts.LogLevel); err != nil {
				return err
			}
			opts.errWriter = cmd.ErrOrStderr()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Schemas, "schemas", cfg.Schemas, "directory of CUE record declarations (default: built-in model)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", cfg.DB, "path to the SQLite record store")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewFixturesCommand(opts))
	cmd.AddCommand(NewTemplateCommand(opts))
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// registry returns the declarations selected by --schemas.
func (o *RootOptions) registry() (*compiler.Registry, error) {
	if o.Schemas == "" {
		reg, err := model.Registry()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "built-in model failed to compile", err)
		}
		return reg, nil
	}
	result, err := LoadSchemas(o.Schemas)
	if err != nil {
		return nil, err
	}
	return result.Registry, nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
