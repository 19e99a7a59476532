package asdf

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/inventory"
	"github.com/robert-malhotra/go-asdf/provenance"
	"github.com/robert-malhotra/go-asdf/stream"
)

var t0 = time.Date(2019, 7, 6, 3, 19, 53, 0, time.UTC)

func testTrace(sta, cha string, n int) *stream.Trace {
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(float64(i) / 10)
	}
	return &stream.Trace{
		Stats: stream.Stats{
			Network:      "CI",
			Station:      sta,
			Location:     "--",
			Channel:      cha,
			StartTime:    t0,
			SamplingRate: 100,
		},
		Data: data,
	}
}

func createDataSet(t *testing.T, opts ...Option) (*DataSet, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.h5")
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	ds, err := Create(path, opts...)
	require.NoError(t, err)
	return ds, path
}

func TestCreateLayout(t *testing.T) {
	ds, path := createDataSet(t)
	require.NoError(t, ds.Close())

	f, err := hdf5.Open(path)
	require.NoError(t, err)
	defer f.Close()

	root := f.Root()
	for _, name := range []string{"AuxiliaryData", "Provenance", "Waveforms", "QuakeML"} {
		assert.True(t, root.Has(name), name)
	}

	format, err := root.Attr("file_format").ReadScalarString()
	require.NoError(t, err)
	assert.Equal(t, "ASDF", format)

	ds, err = Open(path)
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, "1.0.3", ds.FileFormatVersion())
	assert.False(t, ds.Writable())

	cat, err := ds.Events()
	require.NoError(t, err)
	assert.Empty(t, cat.Events)
}

func TestCreateRejectsCompressionLevel(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x.h5"), WithCompression(12))
	require.Error(t, err)
	assert.True(t, Error.Has(err))
}

func TestOpenPlainHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateGroup("data")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotASDF))

	ds, err := OpenReadWrite(path)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, ds.FileFormatVersion())
	require.NoError(t, ds.Close())

	ds, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, ds.Close())
}

func TestOpenReadWriteForeignFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.h5")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Root().SetAttr("file_format", "NetCDF"))
	require.NoError(t, f.Close())

	_, err = OpenReadWrite(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotASDF))
}

func TestValidateTag(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"raw_recording", "raw_recording", false},
		{"clc_1", "clc_1", false},
		// fullwidth digits normalize to ASCII
		{"clc_１", "clc_1", false},
		{"CLC_1", "", true},
		{"", "", true},
		{"a-b", "", true},
		{"a/b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateTag(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTag))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWaveformName(t *testing.T) {
	n := WaveformName{
		Network: "CI", Station: "CLC", Location: "--", Channel: "HNE",
		Start: t0, End: t0.Add(time.Minute), Tag: "clc_1",
	}
	assert.Equal(t, "CI.CLC.--.HNE__2019-07-06T03:19:53__2019-07-06T03:20:53__clc_1", n.String())
	assert.Equal(t, "CI.CLC", n.StationKey())

	parsed, err := ParseWaveformName(n.String())
	require.NoError(t, err)
	assert.Equal(t, n, parsed)

	for _, bad := range []string{"StationXML", "CI.CLC.HNE__a__b__c", "CI.CLC.--.HNE__x__2019-07-06T03:20:53__t"} {
		_, err := ParseWaveformName(bad)
		assert.Error(t, err, bad)
	}
}

func TestAddWaveformsRoundtrip(t *testing.T) {
	ds, path := createDataSet(t, WithCompression(3), WithShuffle())

	st := stream.New(testTrace("CLC", "HNE", 3000), testTrace("CLC", "HNN", 3000), testTrace("CLC", "HNZ", 0))
	st.Traces[1].Stats.StartTime = t0.Add(1500 * time.Millisecond)
	require.NoError(t, ds.AddWaveforms(st, "raw_recording", "smi:local/ev1"))
	require.NoError(t, ds.Close())

	ds, err := Open(path, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer ds.Close()

	stations, err := ds.Stations()
	require.NoError(t, err)
	assert.Equal(t, []string{"CI.CLC"}, stations)

	tags, err := ds.WaveformTags("CI.CLC")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw_recording"}, tags)

	got, err := ds.Waveforms("CI.CLC", "raw_recording")
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	for i, tr := range got.Traces {
		want := st.Traces[i]
		assert.Equal(t, want.ID(), tr.ID())
		assert.Equal(t, want.Stats.StartTime, tr.Stats.StartTime)
		assert.Equal(t, 100.0, tr.Stats.SamplingRate)
		assert.Equal(t, want.Data, tr.Data)
		assert.False(t, tr.IsProcessed())
	}

	names, err := ds.WaveformNames("CI.CLC")
	require.NoError(t, err)
	id, err := ds.EventID("CI.CLC", names[0])
	require.NoError(t, err)
	assert.Equal(t, "smi:local/ev1", id)

	_, err = ds.Waveforms("CI.CLC", "clc_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hdf5.ErrNotFound))
}

func TestAddWaveformsAppends(t *testing.T) {
	ds, path := createDataSet(t)

	require.NoError(t, ds.AddWaveforms(stream.New(testTrace("CLC", "HNE", 10)), "raw_recording", ""))
	require.NoError(t, ds.AddWaveforms(stream.New(testTrace("CLC", "HNN", 10)), "raw_recording", ""))

	// same channel and span as the first call
	again := testTrace("CLC", "HNE", 10)
	for i := range again.Data {
		again.Data[i] = 7
	}
	require.NoError(t, ds.AddWaveforms(stream.New(again), "raw_recording", ""))
	require.NoError(t, ds.Close())

	ds, err := Open(path)
	require.NoError(t, err)
	defer ds.Close()

	raw, err := ds.Waveforms("CI.CLC", "raw_recording")
	require.NoError(t, err)
	require.Equal(t, 2, raw.Len())
	assert.Equal(t, "HNN", raw.Traces[0].Stats.Channel)
	assert.Equal(t, "HNE", raw.Traces[1].Stats.Channel)
	assert.Equal(t, again.Data, raw.Traces[1].Data)
}

func TestRemoveWaveforms(t *testing.T) {
	ds, path := createDataSet(t)

	require.NoError(t, ds.AddWaveforms(stream.New(testTrace("CLC", "HNE", 10)), "raw_recording", ""))
	require.NoError(t, ds.AddWaveforms(stream.New(testTrace("CLC", "HNE", 10), testTrace("CLC", "HNN", 10)), "clc_1", ""))
	inv, err := inventory.FromStream(stream.New(testTrace("CLC", "HNE", 1)))
	require.NoError(t, err)
	require.NoError(t, ds.AddStationXML(inv))

	n, err := ds.RemoveWaveforms("CI.CLC", "clc_1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, ds.AddWaveforms(stream.New(testTrace("CLC", "HNZ", 20)), "clc_1", ""))

	n, err = ds.RemoveWaveforms("CI.XYZ", "clc_1")
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, ds.Close())

	ds, err = Open(path)
	require.NoError(t, err)
	defer ds.Close()

	tags, err := ds.WaveformTags("CI.CLC")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw_recording", "clc_1"}, tags)

	got, err := ds.Waveforms("CI.CLC", "clc_1")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "HNZ", got.Traces[0].Stats.Channel)
	assert.Len(t, got.Traces[0].Data, 20)

	raw, err := ds.Waveforms("CI.CLC", "raw_recording")
	require.NoError(t, err)
	assert.Equal(t, 1, raw.Len())

	_, err = ds.StationXML("CI.CLC")
	require.NoError(t, err)
}

func TestAddWaveformsErrors(t *testing.T) {
	ds, _ := createDataSet(t)
	defer ds.Close()

	err := ds.AddWaveforms(stream.New(), "raw_recording", "")
	require.Error(t, err)

	err = ds.AddWaveforms(stream.New(testTrace("CLC", "HNE", 1)), "Raw", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTag))

	// same trace id and start second within one call collide
	dup := stream.New(testTrace("CLC", "HNE", 1), testTrace("CLC", "HNE", 1))
	err = ds.AddWaveforms(dup, "raw_recording", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hdf5.ErrExists))
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	ds, path := createDataSet(t)
	require.NoError(t, ds.Close())

	ds, err := Open(path)
	require.NoError(t, err)
	defer ds.Close()

	err = ds.AddWaveforms(stream.New(testTrace("CLC", "HNE", 1)), "raw_recording", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hdf5.ErrReadOnly))
}

func TestAddQuakeML(t *testing.T) {
	ds, path := createDataSet(t)

	ev1 := &event.Event{ID: "smi:local/a", Time: t0, Latitude: 35.77, Longitude: -117.6, Depth: 8, Magnitude: 7.1}
	ev2 := &event.Event{ID: "smi:local/b", Time: t0, Magnitude: 4}
	require.NoError(t, ds.AddQuakeML(&event.Catalog{Events: []*event.Event{ev1}}))
	require.NoError(t, ds.AddQuakeML(&event.Catalog{Events: []*event.Event{ev2}}))

	updated := *ev1
	updated.Magnitude = 7.0
	require.NoError(t, ds.AddQuakeML(&event.Catalog{Events: []*event.Event{&updated}}))
	require.NoError(t, ds.Close())

	ds, err := Open(path)
	require.NoError(t, err)
	defer ds.Close()

	cat, err := ds.Events()
	require.NoError(t, err)
	require.Len(t, cat.Events, 2)
	assert.Equal(t, &updated, cat.Events[0])
	assert.Equal(t, ev2, cat.Events[1])
}

func TestStationXMLMerges(t *testing.T) {
	ds, path := createDataSet(t)

	a, err := inventory.FromStream(stream.New(testTrace("CLC", "HNE", 1)))
	require.NoError(t, err)
	b, err := inventory.FromStream(stream.New(testTrace("CLC", "HNZ", 1)))
	require.NoError(t, err)

	require.NoError(t, ds.AddStationXML(a))
	require.NoError(t, ds.AddStationXML(b))
	require.NoError(t, ds.Close())

	ds, err = Open(path)
	require.NoError(t, err)
	defer ds.Close()

	inv, err := ds.StationXML("CI.CLC")
	require.NoError(t, err)
	stats := inv.ChannelStats()
	assert.Contains(t, stats, "HNE")
	assert.Contains(t, stats, "HNZ")

	// StationXML is not listed as a waveform
	tags, err := ds.WaveformTags("CI.CLC")
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = ds.StationXML("IU.ANMO")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hdf5.ErrNotFound))
}

func TestProvenance(t *testing.T) {
	ds, path := createDataSet(t)

	tr := testTrace("CLC", "HNE", 1)
	tr.Stats.ProcessingParameters = stream.Parameters{"corner_frequency": 0.1}
	docs, err := provenance.FromStream(stream.New(tr), stream.Software{Name: "go-asdf", Version: "dev"})
	require.NoError(t, err)

	require.NoError(t, ds.AddProvenanceDocument(docs[0], "clc_1"))
	require.NoError(t, ds.AddProvenanceDocument(docs[0], "clc_1"))
	err = ds.AddProvenanceDocument(docs[0], "Bad Name")
	assert.True(t, errors.Is(err, ErrInvalidTag))
	require.NoError(t, ds.Close())

	ds, err = Open(path)
	require.NoError(t, err)
	defer ds.Close()

	names, err := ds.ProvenanceNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"clc_1"}, names)
	assert.True(t, ds.HasProvenance("clc_1"))
	assert.False(t, ds.HasProvenance("raw_recording"))

	doc, err := ds.Provenance("clc_1")
	require.NoError(t, err)
	params, sw := provenance.Extract(doc)
	assert.Equal(t, stream.Parameters{"corner_frequency": 0.1}, params)
	require.NotNil(t, sw)
	assert.Equal(t, "go-asdf", sw.Name)
}
