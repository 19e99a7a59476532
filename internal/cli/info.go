package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-asdf/asdf"
)

const infoTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// InfoResult summarizes an archive.
type InfoResult struct {
	Path          string        `json:"path"`
	FormatVersion string        `json:"format_version"`
	Events        []InfoEvent   `json:"events"`
	Provenance    []string      `json:"provenance"`
	Stations      []InfoStation `json:"stations"`
}

// InfoEvent is one catalog entry.
type InfoEvent struct {
	ID            string    `json:"id"`
	Time          time.Time `json:"time"`
	Magnitude     float64   `json:"magnitude"`
	MagnitudeType string    `json:"magnitude_type,omitempty"`
}

// InfoStation lists a station's tags.
type InfoStation struct {
	Station       string    `json:"station"`
	HasStationXML bool      `json:"has_stationxml"`
	Channels      int       `json:"channels"`
	Tags          []InfoTag `json:"tags"`
}

// InfoTag lists the traces stored under one tag.
type InfoTag struct {
	Tag    string      `json:"tag"`
	Traces []InfoTrace `json:"traces"`
}

// InfoTrace describes one stored trace.
type InfoTrace struct {
	ID           string    `json:"id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Samples      int       `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize the contents of an archive",
		Long: `List the events, provenance documents, stations, tags and traces
stored in an ASDF archive.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInfo(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	log := opts.Logger()
	defer func() { _ = log.Sync() }()

	result, err := collectInfo(path, asdf.WithLogger(log))
	if err != nil {
		return formatter.Fail(ExitCommandError, "info", err)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return writeInfoText(cmd.OutOrStdout(), result)
}

func collectInfo(path string, opts ...asdf.Option) (_ *InfoResult, err error) {
	ds, err := asdf.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	result := &InfoResult{
		Path:          path,
		FormatVersion: ds.FileFormatVersion(),
		Events:        []InfoEvent{},
		Provenance:    []string{},
		Stations:      []InfoStation{},
	}

	cat, err := ds.Events()
	if err != nil {
		return nil, err
	}
	for _, ev := range cat.Events {
		result.Events = append(result.Events, InfoEvent{
			ID:            ev.ID,
			Time:          ev.Time,
			Magnitude:     ev.Magnitude,
			MagnitudeType: ev.MagnitudeType,
		})
	}

	names, err := ds.ProvenanceNames()
	if err != nil {
		return nil, err
	}
	result.Provenance = append(result.Provenance, names...)

	stations, err := ds.Stations()
	if err != nil {
		return nil, err
	}
	for _, station := range stations {
		info := InfoStation{Station: station, Tags: []InfoTag{}}
		if inv, err := ds.StationXML(station); err == nil {
			info.HasStationXML = true
			info.Channels = len(inv.ChannelStats())
		}

		tags, err := ds.WaveformTags(station)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			st, err := ds.Waveforms(station, tag)
			if err != nil {
				return nil, err
			}
			it := InfoTag{Tag: tag}
			for _, tr := range st.Traces {
				it.Traces = append(it.Traces, InfoTrace{
					ID:           tr.ID(),
					Start:        tr.Stats.StartTime,
					End:          tr.EndTime(),
					Samples:      len(tr.Data),
					SamplingRate: tr.Stats.SamplingRate,
				})
			}
			info.Tags = append(info.Tags, it)
		}
		result.Stations = append(result.Stations, info)
	}
	return result, nil
}

func writeInfoText(w io.Writer, r *InfoResult) error {
	fmt.Fprintf(w, "File:       %s\n", filepath.Base(r.Path))
	fmt.Fprintf(w, "Format:     ASDF %s\n", r.FormatVersion)

	fmt.Fprintf(w, "Events:     %d\n", len(r.Events))
	for _, ev := range r.Events {
		mt := ev.MagnitudeType
		if mt == "" {
			mt = "M"
		}
		fmt.Fprintf(w, "  %s  %s  %s %.1f\n", ev.ID, ev.Time.UTC().Format(infoTimeLayout), mt, ev.Magnitude)
	}

	fmt.Fprintf(w, "Provenance: %d\n", len(r.Provenance))
	for _, name := range r.Provenance {
		fmt.Fprintf(w, "  %s\n", name)
	}

	fmt.Fprintf(w, "Stations:   %d\n", len(r.Stations))
	for _, s := range r.Stations {
		if s.HasStationXML {
			fmt.Fprintf(w, "  %s  %d channels\n", s.Station, s.Channels)
		} else {
			fmt.Fprintf(w, "  %s  no StationXML\n", s.Station)
		}
		for _, tag := range s.Tags {
			fmt.Fprintf(w, "    %s  %d traces\n", tag.Tag, len(tag.Traces))
			for _, tr := range tag.Traces {
				fmt.Fprintf(w, "      %s  %s  %s  %d samples  %g Hz\n",
					tr.ID,
					tr.Start.UTC().Format(infoTimeLayout),
					tr.End.UTC().Format(infoTimeLayout),
					tr.Samples,
					tr.SamplingRate)
			}
		}
	}
	return nil
}
