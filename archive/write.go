package archive

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-asdf/asdf"
	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/inventory"
	"github.com/robert-malhotra/go-asdf/provenance"
	"github.com/robert-malhotra/go-asdf/stream"
)

// Write stores streams in the container at path, appending to an existing
// HDF5 file or creating a new one. When ev is not nil its event is added to
// the catalog and associated with every waveform written.
//
// A stream is processed when its first trace carries processing
// parameters. Raw streams are tagged RawTag and accumulate: their traces
// are added next to the raw traces already stored, and only a trace with
// the same channel and time span is overwritten. Processed streams are
// tagged <station>_<revision> and replace whatever was stored under their
// station and tag. They also get one provenance document per processed
// trace under the tag; the last one written is kept. Station metadata is
// merged into the station's StationXML.
//
// Appending needs an existing file with a version 2 or 3 superblock, as
// written by this package or by HDF5 1.10+ with the latest file format.
// Files with a version 0 or 1 superblock, the h5py and pyasdf default,
// can be read but not appended to; Write fails with hdf5.ErrUnsupported.
//
// On failure the file keeps everything written before the failing stream.
func Write(path string, streams []*stream.Stream, ev event.Source, opts ...Option) (err error) {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	cfg := o.config

	ds, err := openForWrite(path, cfg.datasetOptions(o.log))
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	var eventID string
	if ev != nil {
		e, err := ev.Event()
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := ds.AddQuakeML(&event.Catalog{Events: []*event.Event{e}}); err != nil {
			return fmt.Errorf("write %s: event %s: %w", path, e.ID, err)
		}
		eventID = e.ID
	}

	for i, st := range streams {
		if st == nil || st.Len() == 0 {
			return Error.New("stream %d is empty", i)
		}
		if cfg.Strict {
			if err := st.Validate(); err != nil {
				return fmt.Errorf("stream %d: %w", i, err)
			}
		}
		if err := writeStream(ds, st, eventID, cfg); err != nil {
			return fmt.Errorf("stream %d (%s): %w", i, st.Station(), err)
		}
		o.log.Debug("stream written",
			zap.String("station", st.Station()),
			zap.String("tag", Tag(st, cfg.Revision)),
			zap.Int("traces", st.Len()))
	}
	return nil
}

func openForWrite(path string, opts []asdf.Option) (*asdf.DataSet, error) {
	if hdf5.IsHDF5(path) {
		return asdf.OpenReadWrite(path, opts...)
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return nil, Error.New("%s exists and is not an HDF5 file", path)
	}
	return asdf.Create(path, opts...)
}

func writeStream(ds *asdf.DataSet, st *stream.Stream, eventID string, cfg Config) error {
	tag := Tag(st, cfg.Revision)

	if st.IsProcessed() {
		cleared := make(map[string]bool)
		for _, tr := range st.Traces {
			key := asdf.StationKey(tr)
			if cleared[key] {
				continue
			}
			cleared[key] = true
			if _, err := ds.RemoveWaveforms(key, tag); err != nil {
				return err
			}
		}
	}

	if err := ds.AddWaveforms(st, tag, eventID); err != nil {
		return err
	}

	if st.IsProcessed() {
		docs, err := provenance.FromStream(st, cfg.Software)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := ds.AddProvenanceDocument(doc, tag); err != nil {
				return err
			}
		}
	}

	inv, err := inventory.FromStream(st)
	if err != nil {
		return err
	}
	return ds.AddStationXML(inv)
}
