package archive

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-asdf/asdf"
	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/stream"
)

// CopyResult counts what Copy transferred.
type CopyResult struct {
	Stations   int
	Streams    int
	Traces     int
	Events     int
	Provenance int
}

// Copy transfers the contents of the container at source into target,
// rewriting every dataset with the configured compression and shuffle.
// Waveforms keep their tags and event associations, so every revision of a
// processed stream survives. The whole event catalog, every StationXML and
// every provenance document are carried over. An existing target is
// appended to under the same rules as Write: raw traces accumulate and a
// processed tag present in both files takes the source's traces.
func Copy(source, target string, opts ...Option) (res CopyResult, err error) {
	o, err := newOptions(opts)
	if err != nil {
		return res, err
	}

	src, err := asdf.Open(source, asdf.WithLogger(o.log))
	if err != nil {
		return res, fmt.Errorf("copy %s: %w", source, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	dst, err := openForWrite(target, o.config.datasetOptions(o.log))
	if err != nil {
		return res, fmt.Errorf("copy to %s: %w", target, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	cat, err := src.Events()
	if err != nil {
		return res, fmt.Errorf("copy %s: %w", source, err)
	}
	if len(cat.Events) > 0 {
		if err := dst.AddQuakeML(cat); err != nil {
			return res, fmt.Errorf("copy to %s: %w", target, err)
		}
	}
	res.Events = len(cat.Events)

	stations, err := src.Stations()
	if err != nil {
		return res, fmt.Errorf("copy %s: %w", source, err)
	}
	for _, station := range stations {
		n, err := copyStation(src, dst, station)
		if err != nil {
			return res, fmt.Errorf("station %s: %w", station, err)
		}
		res.Stations++
		res.Streams += n.Streams
		res.Traces += n.Traces
	}

	names, err := src.ProvenanceNames()
	if err != nil {
		return res, fmt.Errorf("copy %s: %w", source, err)
	}
	for _, name := range names {
		doc, err := src.Provenance(name)
		if err != nil {
			return res, err
		}
		if err := dst.AddProvenanceDocument(doc, name); err != nil {
			return res, err
		}
		res.Provenance++
	}

	o.log.Debug("container copied",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("streams", res.Streams),
		zap.Int("events", res.Events))
	return res, nil
}

func copyStation(src, dst *asdf.DataSet, station string) (res CopyResult, err error) {
	inv, err := src.StationXML(station)
	switch {
	case errors.Is(err, hdf5.ErrNotFound):
	case err != nil:
		return res, err
	default:
		if err := dst.AddStationXML(inv); err != nil {
			return res, err
		}
	}

	names, err := src.WaveformNames(station)
	if err != nil {
		return res, err
	}
	tags, err := src.WaveformTags(station)
	if err != nil {
		return res, err
	}

	for _, tag := range tags {
		st, err := src.Waveforms(station, tag)
		if err != nil {
			return res, err
		}
		if tag != RawTag {
			if _, err := dst.RemoveWaveforms(station, tag); err != nil {
				return res, err
			}
		}

		// Waveforms returns the traces of tag in name order.
		i := 0
		for _, name := range names {
			if name.Tag != tag {
				continue
			}
			eventID, err := src.EventID(station, name)
			if err != nil {
				return res, err
			}
			if err := dst.AddWaveforms(stream.New(st.Traces[i]), tag, eventID); err != nil {
				return res, err
			}
			i++
		}
		res.Streams++
		res.Traces += st.Len()
	}
	return res, nil
}
