package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/asdf"
	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/stream"
)

func TestCopyKeepsTagsAndCatalog(t *testing.T) {
	src := tempPath(t)
	ev1 := &event.Event{ID: "smi:local/ev1", Time: t0, Magnitude: 4.2, MagnitudeType: "ML"}
	ev2 := &event.Event{ID: "smi:local/ev2", Time: t0.Add(time.Hour), Magnitude: 5.0, MagnitudeType: "Mw"}

	cfg := DefaultConfig()
	require.NoError(t, Write(src, []*stream.Stream{
		rawStream("CLC", 1),
		processedStream("CLC", 2, stream.Parameters{"pass": int64(1)}),
	}, ev1, WithConfig(cfg)))
	cfg.Revision = 2
	require.NoError(t, Write(src, []*stream.Stream{
		processedStream("CLC", 3, stream.Parameters{"pass": int64(2)}),
		rawStream("SRT", 4),
	}, ev2, WithConfig(cfg)))

	dst := tempPath(t)
	copyCfg := DefaultConfig()
	copyCfg.Compression = 0
	res, err := Copy(src, dst, append(testOptions(t), WithConfig(copyCfg))...)
	require.NoError(t, err)
	assert.Equal(t, CopyResult{Stations: 2, Streams: 4, Traces: 12, Events: 2, Provenance: 2}, res)

	want, err := Read(src)
	require.NoError(t, err)
	got, err := Read(dst)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Len(), got[i].Len())
		for j := range want[i].Traces {
			assert.Equal(t, want[i].Traces[j].ID(), got[i].Traces[j].ID())
			assert.Equal(t, want[i].Traces[j].Data, got[i].Traces[j].Data)
			assert.Equal(t, want[i].Traces[j].Stats.ProcessingParameters, got[i].Traces[j].Stats.ProcessingParameters)
		}
	}

	ds, err := asdf.Open(dst)
	require.NoError(t, err)
	defer ds.Close()

	tags, err := ds.WaveformTags("CI.CLC")
	require.NoError(t, err)
	assert.Equal(t, []string{RawTag, "clc_1", "clc_2"}, tags)

	cat, err := ds.Events()
	require.NoError(t, err)
	require.Len(t, cat.Events, 2)
	assert.Equal(t, "smi:local/ev1", cat.Events[0].ID)
	assert.Equal(t, "smi:local/ev2", cat.Events[1].ID)

	// event associations follow the traces
	for _, n := range mustNames(t, ds, "CI.CLC") {
		id, err := ds.EventID("CI.CLC", n)
		require.NoError(t, err)
		if n.Tag == "clc_2" {
			assert.Equal(t, "smi:local/ev2", id)
		} else {
			assert.Equal(t, "smi:local/ev1", id)
		}
	}
}

func TestCopyMissingSource(t *testing.T) {
	dst := tempPath(t)
	_, err := Copy(tempPath(t), dst)
	require.Error(t, err)
	assert.False(t, IsASDF(dst))
}

func mustNames(t *testing.T, ds *asdf.DataSet, station string) []asdf.WaveformName {
	t.Helper()
	names, err := ds.WaveformNames(station)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	return names
}
