package archive

import (
	"errors"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-asdf/asdf"
	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/provenance"
	"github.com/robert-malhotra/go-asdf/stream"
)

// Read returns every stream stored in the container at path, one per
// station and tag, in storage order. Traces carry the coordinates and
// standard metadata of their channel, and the processing parameters and
// software of the provenance document stored under their tag.
func Read(path string, opts ...Option) (streams []*stream.Stream, err error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	ds, err := asdf.Open(path, asdf.WithLogger(o.log))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	stations, err := ds.Stations()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	for _, station := range stations {
		inv, err := ds.StationXML(station)
		if errors.Is(err, hdf5.ErrNotFound) {
			return nil, fmt.Errorf("%w: station %s has no StationXML", ErrMissingChannel, station)
		}
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", station, err)
		}
		channels := inv.ChannelStats()

		tags, err := ds.WaveformTags(station)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", station, err)
		}

		for _, tag := range tags {
			st, err := ds.Waveforms(station, tag)
			if err != nil {
				return nil, fmt.Errorf("station %s: %w", station, err)
			}

			var params stream.Parameters
			var software *stream.Software
			if ds.HasProvenance(tag) {
				doc, err := ds.Provenance(tag)
				if err != nil {
					return nil, fmt.Errorf("station %s tag %s: %w", station, tag, err)
				}
				params, software = provenance.Extract(doc)
			}

			for _, tr := range st.Traces {
				cs, ok := channels[tr.Stats.Channel]
				if !ok {
					return nil, fmt.Errorf("%w: station %s channel %s", ErrMissingChannel, station, tr.Stats.Channel)
				}

				coords := cs.Coordinates
				tr.Stats.Coordinates = &coords
				std := cs.Standard
				tr.Stats.Standard = &std
				if cs.FormatSpecific != nil {
					tr.Stats.FormatSpecific = maps.Clone(cs.FormatSpecific)
				}

				if params != nil {
					tr.Stats.ProcessingParameters = maps.Clone(params)
					if software != nil {
						sw := *software
						tr.Stats.Software = &sw
					}
				}
			}

			o.log.Debug("stream read",
				zap.String("station", station),
				zap.String("tag", tag),
				zap.Int("traces", st.Len()),
				zap.Bool("processed", params != nil))
			streams = append(streams, st)
		}
	}
	return streams, nil
}
