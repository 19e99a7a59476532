package event

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	ev, err := FromMap(map[string]any{
		"id":        "us1000abcd",
		"time":      "2020-01-02T03:04:05.5Z",
		"lat":       35.0,
		"lon":       -118,
		"depth":     "10.5",
		"magnitude": float32(5.5),
	})
	require.NoError(t, err)

	assert.Equal(t, "us1000abcd", ev.ID)
	assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 500_000_000, time.UTC), ev.Time)
	assert.Equal(t, 35.0, ev.Latitude)
	assert.Equal(t, -118.0, ev.Longitude)
	assert.Equal(t, 10.5, ev.Depth)
	assert.Equal(t, 5.5, ev.Magnitude)
}

func TestFromMapDefaultsID(t *testing.T) {
	ev, err := Map{
		"time":      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"lat":       1,
		"lon":       2,
		"depth":     3,
		"magnitude": 4,
	}.Event()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ev.ID, "smi:local/"), ev.ID)
}

func TestFromMapErrors(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"time": "2020-01-01T00:00:00Z", "lat": 1.0, "lon": 2.0, "depth": 3.0, "magnitude": 4.0,
		}
	}

	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"missing time", func(m map[string]any) { delete(m, "time") }},
		{"bad time", func(m map[string]any) { m["time"] = "yesterday" }},
		{"missing magnitude", func(m map[string]any) { delete(m, "magnitude") }},
		{"non numeric", func(m map[string]any) { m["depth"] = "deep" }},
		{"wrong type", func(m map[string]any) { m["lat"] = []int{1} }},
		{"latitude range", func(m map[string]any) { m["lat"] = 91.0 }},
		{"id type", func(m map[string]any) { m["id"] = 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			_, err := FromMap(m)
			require.Error(t, err)
			assert.True(t, Error.Has(err))
		})
	}
}

func TestEventSource(t *testing.T) {
	ev := &Event{ID: "smi:local/x"}
	got, err := ev.Event()
	require.NoError(t, err)
	assert.Same(t, ev, got)

	var nilEvent *Event
	_, err = nilEvent.Event()
	require.Error(t, err)
}

func TestQuakeMLRoundtrip(t *testing.T) {
	in := &Catalog{Events: []*Event{
		{
			ID:            "smi:local/ci38457511",
			Time:          time.Date(2019, 7, 6, 3, 19, 53, 40_000_000, time.UTC),
			Latitude:      35.7695,
			Longitude:     -117.5993,
			Depth:         8,
			Magnitude:     7.1,
			MagnitudeType: "Mw",
		},
		{
			ID:        "smi:local/second",
			Time:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Magnitude: 3,
		},
	}}

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<q:quakeml")
	assert.Contains(t, string(data), `publicID="smi:local/ci38457511"`)
	assert.Contains(t, string(data), "<value>8000</value>")

	out, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, out.Events, 2)
	assert.Equal(t, in.Events[0], out.Events[0])
	assert.Equal(t, in.Events[1], out.Events[1])
}

func TestQuakeMLEmptyCatalog(t *testing.T) {
	data, err := Marshal(&Catalog{})
	require.NoError(t, err)

	out, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Empty(t, out.Events)
}

func TestQuakeMLErrors(t *testing.T) {
	_, err := Marshal(&Catalog{Events: []*Event{{}}})
	require.Error(t, err)

	_, err = Unmarshal([]byte("not xml"))
	require.Error(t, err)

	_, err = Unmarshal([]byte("<FDSNStationXML/>"))
	require.Error(t, err)
}
