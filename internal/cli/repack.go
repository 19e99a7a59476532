package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-asdf/archive"
)

// RepackResult reports what was copied.
type RepackResult struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Stations   int    `json:"stations"`
	Streams    int    `json:"streams"`
	Traces     int    `json:"traces"`
	Events     int    `json:"events"`
	Provenance int    `json:"provenance"`
}

// NewRepackCommand creates the repack command.
func NewRepackCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repack <source> <target>",
		Short: "Copy the contents of an archive into another archive",
		Long: `Copy every waveform of the source archive to the target under its
original tag, rewriting the data with the --config compression and
shuffle settings. The whole event catalog, the StationXML of every
station and every provenance document are carried over. An existing
target is appended to.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepack(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runRepack(opts *RootOptions, source, target string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	log := opts.Logger()
	defer func() { _ = log.Sync() }()

	cfg, err := opts.WriteConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, "config", err)
	}

	res, err := archive.Copy(source, target, archive.WithConfig(cfg), archive.WithLogger(log))
	if err != nil {
		return formatter.Fail(ExitCommandError, "repack", err)
	}
	formatter.VerboseLog("wrote %d traces to %s (gzip %d)", res.Traces, target, cfg.Compression)

	result := RepackResult{
		Source:     source,
		Target:     target,
		Stations:   res.Stations,
		Streams:    res.Streams,
		Traces:     res.Traces,
		Events:     res.Events,
		Provenance: res.Provenance,
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %d streams, %d events\n", source, target, result.Streams, result.Events)
	return err
}
