package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/archive"
	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/stream"
)

var t0 = time.Date(2019, 7, 6, 3, 19, 53, 0, time.UTC)

func fixtureTrace(sta, cha string, n int, rate float64) *stream.Trace {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i%17) - 8
	}
	return &stream.Trace{
		Stats: stream.Stats{
			Network:      "CI",
			Station:      sta,
			Location:     "--",
			Channel:      cha,
			StartTime:    t0,
			SamplingRate: rate,
			Coordinates:  &stream.Coordinates{Latitude: 35.8157, Longitude: -117.5975, Elevation: 775},
			Standard:     &stream.Standard{Source: "CI", Units: "acc", StationName: sta},
		},
		Data: data,
	}
}

// writeFixture writes info.h5: a raw and a processed stream for CI.CLC, a
// raw stream for CI.SRT and one event.
func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "info.h5")

	processed := fixtureTrace("CLC", "HNE", 500, 100)
	processed.Stats.ProcessingParameters = stream.Parameters{"corner_frequency": 0.1}

	streams := []*stream.Stream{
		stream.New(fixtureTrace("CLC", "HNE", 500, 100), fixtureTrace("CLC", "HNZ", 500, 100)),
		stream.New(processed),
		stream.New(fixtureTrace("SRT", "HNZ", 200, 50)),
	}
	ev := &event.Event{
		ID:            "smi:local/ci38457511",
		Time:          time.Date(2019, 7, 6, 3, 19, 53, 40_000_000, time.UTC),
		Latitude:      35.7695,
		Longitude:     -117.5993,
		Depth:         8,
		Magnitude:     7.1,
		MagnitudeType: "Mw",
	}

	require.NoError(t, archive.Write(path, streams, ev))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
