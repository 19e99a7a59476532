package asdf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/stream"
)

const (
	nameTimeLayout = "2006-01-02T15:04:05"
	nameSeparator  = "__"

	attrSamplingRate = "sampling_rate"
	attrStartTime    = "starttime"
	attrEventID      = "event_id"
)

// WaveformName is the decoded name of a waveform dataset.
type WaveformName struct {
	Network, Station, Location, Channel string
	Start, End                          time.Time
	Tag                                 string
}

// String encodes the name as NET.STA.LOC.CHA__<start>__<end>__<tag>.
func (n WaveformName) String() string {
	id := strings.Join([]string{n.Network, n.Station, n.Location, n.Channel}, ".")
	return strings.Join([]string{
		id,
		n.Start.UTC().Format(nameTimeLayout),
		n.End.UTC().Format(nameTimeLayout),
		n.Tag,
	}, nameSeparator)
}

// StationKey returns NET.STA.
func (n WaveformName) StationKey() string {
	return n.Network + "." + n.Station
}

// ParseWaveformName decodes a waveform dataset name.
func ParseWaveformName(name string) (WaveformName, error) {
	parts := strings.SplitN(name, nameSeparator, 4)
	if len(parts) != 4 {
		return WaveformName{}, Error.New("malformed waveform name %q", name)
	}

	codes := strings.Split(parts[0], ".")
	if len(codes) != 4 {
		return WaveformName{}, Error.New("malformed trace id in %q", name)
	}

	start, err := time.Parse(nameTimeLayout, parts[1])
	if err != nil {
		return WaveformName{}, Error.New("start time in %q: %v", name, err)
	}
	end, err := time.Parse(nameTimeLayout, parts[2])
	if err != nil {
		return WaveformName{}, Error.New("end time in %q: %v", name, err)
	}

	return WaveformName{
		Network:  codes[0],
		Station:  codes[1],
		Location: codes[2],
		Channel:  codes[3],
		Start:    start,
		End:      end,
		Tag:      parts[3],
	}, nil
}

// StationKey returns the NFKC-normalized NET.STA key of a trace.
func StationKey(tr *stream.Trace) string {
	return norm.NFKC.String(tr.Stats.Network + "." + tr.Stats.Station)
}

func (ds *DataSet) waveforms() (*hdf5.Group, error) {
	return ds.file.Root().OpenGroup(waveformsGroup)
}

// AddWaveforms stores every trace of st under tag, associated with eventID
// when it is not empty. Traces are added alongside what the station already
// holds; only a dataset stored earlier under the same full waveform name is
// replaced. Two traces of st with the same name are an error.
func (ds *DataSet) AddWaveforms(st *stream.Stream, tag, eventID string) error {
	if st.Len() == 0 {
		return Error.New("no traces to add")
	}
	tag, err := ValidateTag(tag)
	if err != nil {
		return err
	}

	wf, err := ds.waveforms()
	if err != nil {
		return Error.Wrap(err)
	}

	written := make(map[string]bool)
	for _, tr := range st.Traces {
		key := StationKey(tr)
		g, err := wf.RequireGroup(key)
		if err != nil {
			return Error.Wrap(fmt.Errorf("station %s: %w", key, err))
		}

		name := WaveformName{
			Network:  tr.Stats.Network,
			Station:  tr.Stats.Station,
			Location: tr.Stats.Location,
			Channel:  tr.Stats.Channel,
			Start:    tr.Stats.StartTime,
			End:      tr.EndTime(),
			Tag:      tag,
		}.String()

		opts := ds.datasetOptions(
			hdf5.WithAttribute(attrSamplingRate, tr.Stats.SamplingRate),
			hdf5.WithAttribute(attrStartTime, tr.Stats.StartTime.UnixNano()),
		)
		if eventID != "" {
			opts = append(opts, hdf5.WithAttribute(attrEventID, eventID))
		}

		full := key + "/" + name
		if !written[full] && g.Has(name) {
			if err := g.Unlink(name); err != nil {
				return Error.Wrap(fmt.Errorf("waveform %s: %w", name, err))
			}
			ds.log.Debug("waveform replaced", zap.String("name", name))
		}
		written[full] = true

		data := tr.Data
		if data == nil {
			data = []float64{}
		}
		if _, err := g.CreateDataset(name, data, opts...); err != nil {
			return Error.Wrap(fmt.Errorf("waveform %s: %w", name, err))
		}

		ds.log.Debug("waveform stored",
			zap.String("name", name),
			zap.Int("samples", len(tr.Data)),
			zap.String("event_id", eventID))
	}
	return nil
}

// RemoveWaveforms deletes every waveform of station stored under tag and
// returns how many were removed. A station that does not exist holds none.
func (ds *DataSet) RemoveWaveforms(station, tag string) (int, error) {
	g, err := ds.station(station)
	if errors.Is(err, hdf5.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, Error.Wrap(fmt.Errorf("station %s: %w", station, err))
	}
	members, err := g.Members()
	if err != nil {
		return 0, Error.Wrap(err)
	}

	n := 0
	for _, m := range members {
		if m == stationXMLName {
			continue
		}
		wn, err := ParseWaveformName(m)
		if err != nil || wn.Tag != tag {
			continue
		}
		if err := g.Unlink(m); err != nil {
			return n, Error.Wrap(fmt.Errorf("waveform %s: %w", m, err))
		}
		n++
		ds.log.Debug("waveform removed", zap.String("name", m))
	}
	return n, nil
}

// Stations lists the NET.STA keys of all stations in storage order.
func (ds *DataSet) Stations() ([]string, error) {
	root := ds.file.Root()
	if !root.Has(waveformsGroup) {
		return nil, nil
	}
	wf, err := ds.waveforms()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	members, err := wf.Members()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return members, nil
}

func (ds *DataSet) station(key string) (*hdf5.Group, error) {
	wf, err := ds.waveforms()
	if err != nil {
		return nil, err
	}
	return wf.OpenGroup(norm.NFKC.String(key))
}

// WaveformNames lists the decoded names of the waveform datasets of a
// station in storage order.
func (ds *DataSet) WaveformNames(station string) ([]WaveformName, error) {
	g, err := ds.station(station)
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("station %s: %w", station, err))
	}
	members, err := g.Members()
	if err != nil {
		return nil, Error.Wrap(err)
	}

	var names []WaveformName
	for _, m := range members {
		if m == stationXMLName {
			continue
		}
		wn, err := ParseWaveformName(m)
		if err != nil {
			ds.log.Debug("skipping member", zap.String("station", station), zap.String("name", m))
			continue
		}
		names = append(names, wn)
	}
	return names, nil
}

// WaveformTags lists the distinct tags of a station in first-seen order.
func (ds *DataSet) WaveformTags(station string) ([]string, error) {
	names, err := ds.WaveformNames(station)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var tags []string
	for _, n := range names {
		if !seen[n.Tag] {
			seen[n.Tag] = true
			tags = append(tags, n.Tag)
		}
	}
	return tags, nil
}

// Waveforms reads the traces of a station stored under tag into a newly
// allocated stream.
func (ds *DataSet) Waveforms(station, tag string) (*stream.Stream, error) {
	names, err := ds.WaveformNames(station)
	if err != nil {
		return nil, err
	}
	g, err := ds.station(station)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	st := stream.New()
	for _, n := range names {
		if n.Tag != tag {
			continue
		}
		tr, err := readTrace(g, n)
		if err != nil {
			return nil, Error.Wrap(fmt.Errorf("waveform %s: %w", n, err))
		}
		st.Traces = append(st.Traces, tr)
	}
	if st.Len() == 0 {
		return nil, Error.Wrap(fmt.Errorf("station %s tag %s: %w", station, tag, hdf5.ErrNotFound))
	}

	ds.log.Debug("stream read", zap.String("station", station), zap.String("tag", tag), zap.Int("traces", st.Len()))
	return st, nil
}

func readTrace(g *hdf5.Group, n WaveformName) (*stream.Trace, error) {
	d, err := g.OpenDataset(n.String())
	if err != nil {
		return nil, err
	}
	data, err := d.ReadFloat64()
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []float64{}
	}

	tr := &stream.Trace{
		Stats: stream.Stats{
			Network:   n.Network,
			Station:   n.Station,
			Location:  n.Location,
			Channel:   n.Channel,
			StartTime: n.Start,
		},
		Data: data,
	}

	if a := d.Attr(attrSamplingRate); a != nil {
		if tr.Stats.SamplingRate, err = a.ReadScalarFloat64(); err != nil {
			return nil, fmt.Errorf("%s: %w", attrSamplingRate, err)
		}
	}
	if a := d.Attr(attrStartTime); a != nil {
		ns, err := a.ReadScalarInt64()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attrStartTime, err)
		}
		tr.Stats.StartTime = time.Unix(0, ns).UTC()
	}
	return tr, nil
}

// EventID returns the event associated with a waveform dataset, or "".
func (ds *DataSet) EventID(station string, name WaveformName) (string, error) {
	g, err := ds.station(station)
	if err != nil {
		return "", Error.Wrap(err)
	}
	d, err := g.OpenDataset(name.String())
	if err != nil {
		return "", Error.Wrap(err)
	}
	a := d.Attr(attrEventID)
	if a == nil {
		return "", nil
	}
	id, err := a.ReadScalarString()
	if err != nil {
		return "", Error.Wrap(err)
	}
	return id, nil
}
