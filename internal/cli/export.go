package cli

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-asdf/archive"
	"github.com/robert-malhotra/go-asdf/stream"
)

// ExportOptions holds export command flags.
type ExportOptions struct {
	*RootOptions
	Output  string
	Samples bool
}

// ExportStream is one stream as read from an archive.
type ExportStream struct {
	Station   string        `json:"station"`
	Processed bool          `json:"processed"`
	Traces    []ExportTrace `json:"traces"`
}

// ExportTrace is one trace with its full metadata.
type ExportTrace struct {
	ID                   string              `json:"id"`
	StartTime            time.Time           `json:"starttime"`
	EndTime              time.Time           `json:"endtime"`
	SamplingRate         float64             `json:"sampling_rate"`
	Samples              int                 `json:"npts"`
	Coordinates          *stream.Coordinates `json:"coordinates,omitempty"`
	Standard             *stream.Standard    `json:"standard,omitempty"`
	FormatSpecific       map[string]any      `json:"format_specific,omitempty"`
	ProcessingParameters stream.Parameters   `json:"processing_parameters,omitempty"`
	Software             *stream.Software    `json:"software,omitempty"`
	Data                 []float64           `json:"data,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the streams of an archive as JSON",
		Long: `Read every stream of an archive with its station metadata and
processing parameters and write it as JSON. Sample data is included only
with --samples.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Samples, "samples", false, "include sample data")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.Logger()
	defer func() { _ = log.Sync() }()

	streams, err := archive.Read(path, archive.WithLogger(log))
	if err != nil {
		return formatter.Fail(ExitCommandError, "export", err)
	}
	result := exportStreams(streams, opts.Samples)
	formatter.VerboseLog("exported %d streams from %s", len(result), path)

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return formatter.Fail(ExitCommandError, "export", err)
		}
		defer f.Close()
		w = f
	}

	if formatter.JSON() {
		out := *formatter
		out.Writer = w
		return out.Success(result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func exportStreams(streams []*stream.Stream, samples bool) []ExportStream {
	out := make([]ExportStream, 0, len(streams))
	for _, st := range streams {
		es := ExportStream{Station: st.Station(), Processed: st.IsProcessed()}
		for _, tr := range st.Traces {
			et := ExportTrace{
				ID:                   tr.ID(),
				StartTime:            tr.Stats.StartTime,
				EndTime:              tr.EndTime(),
				SamplingRate:         tr.Stats.SamplingRate,
				Samples:              len(tr.Data),
				Coordinates:          tr.Stats.Coordinates,
				Standard:             tr.Stats.Standard,
				FormatSpecific:       tr.Stats.FormatSpecific,
				ProcessingParameters: tr.Stats.ProcessingParameters,
				Software:             tr.Stats.Software,
			}
			if samples {
				et.Data = tr.Data
			}
			es.Traces = append(es.Traces, et)
		}
		out = append(out, es)
	}
	return out
}
