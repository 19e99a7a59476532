package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-asdf/archive"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a YAML write configuration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the asdf CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "asdf",
		Short: "Inspect and convert ASDF seismic archives",
		Long: `Inspect and convert ASDF (Adaptable Seismic Data Format) archives.

An archive is an HDF5 file holding waveforms, StationXML station metadata,
QuakeML events and SEIS-PROV processing provenance.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "YAML write configuration")

	cmd.AddCommand(NewDetectCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRepackCommand(opts))

	return cmd
}

// Logger returns a development logger in verbose mode and a no-op logger
// otherwise.
func (o *RootOptions) Logger() *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// WriteConfig loads the --config file, or returns the defaults when none
// was given.
func (o *RootOptions) WriteConfig() (archive.Config, error) {
	if o.Config == "" {
		return archive.DefaultConfig(), nil
	}
	return archive.LoadConfig(o.Config)
}
