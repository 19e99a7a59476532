package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/stream"
)

func testTrace(cha string) *stream.Trace {
	return &stream.Trace{
		Stats: stream.Stats{
			Network:      "CI",
			Station:      "CLC",
			Location:     "--",
			Channel:      cha,
			StartTime:    time.Date(2019, 7, 6, 3, 19, 53, 0, time.UTC),
			SamplingRate: 100,
			Coordinates:  &stream.Coordinates{Latitude: 35.8157, Longitude: -117.5975, Elevation: 775},
			Standard: &stream.Standard{
				Source:                "Southern California Seismic Network",
				SourceFormat:          "mseed",
				StationName:           "China Lake",
				Units:                 "acc",
				HorizontalOrientation: 90,
				InstrumentSensitivity: 213979,
			},
		},
		Data: []float64{0, 1, 2},
	}
}

func TestFromStreamChannelStatsRoundtrip(t *testing.T) {
	hne := testTrace("HNE")
	hne.Stats.FormatSpecific = map[string]any{"vertical_channel": "HNZ", "gain": 1.5}
	hnz := testTrace("HNZ")

	inv, err := FromStream(stream.New(hne, hnz))
	require.NoError(t, err)
	require.Len(t, inv.Networks, 1)
	require.Len(t, inv.Networks[0].Stations, 1)
	assert.Equal(t, "China Lake", inv.Networks[0].Stations[0].Site.Name)

	data, err := Marshal(inv)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<FDSNStationXML xmlns="http://www.fdsn.org/xml/station/1" schemaVersion="1.1">`)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	stats := decoded.ChannelStats()
	require.Len(t, stats, 2)

	e := stats["HNE"]
	assert.Equal(t, *hne.Stats.Coordinates, e.Coordinates)
	assert.Equal(t, *hne.Stats.Standard, e.Standard)
	assert.Equal(t, map[string]any{"vertical_channel": "HNZ", "gain": 1.5}, e.FormatSpecific)

	z := stats["HNZ"]
	assert.Nil(t, z.FormatSpecific)
	assert.Equal(t, "acc", z.Standard.Units)
}

func TestFromStreamRejectsForeignStation(t *testing.T) {
	other := testTrace("HNZ")
	other.Stats.Station = "SRT"

	_, err := FromStream(stream.New(testTrace("HNE"), other))
	require.Error(t, err)
	assert.True(t, Error.Has(err))

	_, err = FromStream(stream.New())
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	a, err := FromStream(stream.New(testTrace("HNE"), testTrace("HNN")))
	require.NoError(t, err)

	updated := testTrace("HNN")
	updated.Stats.Standard.Units = "vel"
	b, err := FromStream(stream.New(updated, testTrace("HNZ")))
	require.NoError(t, err)

	merged := Merge(a, b)
	require.Len(t, merged.Networks, 1)
	require.Len(t, merged.Networks[0].Stations, 1)

	channels := merged.Networks[0].Stations[0].Channels
	require.Len(t, channels, 3)
	assert.Equal(t, "HNE", channels[0].Code)
	assert.Equal(t, "HNN", channels[1].Code)
	assert.Equal(t, "HNZ", channels[2].Code)
	assert.Equal(t, "vel", merged.ChannelStats()["HNN"].Standard.Units)

	// inputs are left untouched
	assert.Len(t, a.Networks[0].Stations[0].Channels, 2)
}

func TestMergeKeepsCoordinatesWhenMissing(t *testing.T) {
	a, err := FromStream(stream.New(testTrace("HNE")))
	require.NoError(t, err)
	data, err := Marshal(a)
	require.NoError(t, err)
	stored, err := Unmarshal(data)
	require.NoError(t, err)

	bare := testTrace("HNZ")
	bare.Stats.Coordinates = nil
	bare.Stats.Standard.StationName = ""
	b, err := FromStream(stream.New(bare))
	require.NoError(t, err)

	merged := Merge(stored, b)
	sta := merged.Networks[0].Stations[0]
	assert.Equal(t, 35.8157, sta.Latitude)
	assert.Equal(t, -117.5975, sta.Longitude)
	assert.Equal(t, 775.0, sta.Elevation)
	assert.Equal(t, "China Lake", sta.Site.Name)
	assert.Len(t, sta.Channels, 2)

	// a located source still moves the station
	moved := testTrace("HNN")
	moved.Stats.Coordinates = &stream.Coordinates{Latitude: 35.9, Longitude: -117.6, Elevation: 800}
	c, err := FromStream(stream.New(moved))
	require.NoError(t, err)
	sta = Merge(merged, c).Networks[0].Stations[0]
	assert.Equal(t, 35.9, sta.Latitude)
	assert.Equal(t, 800.0, sta.Elevation)

	// and a station first seen without coordinates takes them later
	sta = Merge(b, a).Networks[0].Stations[0]
	assert.Equal(t, 35.8157, sta.Latitude)
}

func TestSplitStations(t *testing.T) {
	a, err := FromStream(stream.New(testTrace("HNE")))
	require.NoError(t, err)

	other := testTrace("BHZ")
	other.Stats.Network = "IU"
	other.Stats.Station = "ANMO"
	b, err := FromStream(stream.New(other))
	require.NoError(t, err)

	parts := Merge(a, b).SplitStations()
	require.Len(t, parts, 2)
	assert.Equal(t, "CI.CLC", parts[0].Key())
	assert.Equal(t, "IU.ANMO", parts[1].Key())
	assert.Contains(t, parts[1].Inventory.ChannelStats(), "BHZ")
	assert.NotContains(t, parts[1].Inventory.ChannelStats(), "HNE")
}

func TestMergeNil(t *testing.T) {
	a, err := FromStream(stream.New(testTrace("HNE")))
	require.NoError(t, err)

	merged := Merge(nil, a)
	assert.Len(t, merged.ChannelStats(), 1)
	assert.Empty(t, Merge(nil, nil).Networks)
}

func TestChannelStatsIgnoresForeignDescription(t *testing.T) {
	inv, err := Unmarshal([]byte(`<?xml version="1.0"?>
<FDSNStationXML xmlns="http://www.fdsn.org/xml/station/1" schemaVersion="1.1">
  <Source>IRIS</Source>
  <Network code="IU">
    <Station code="ANMO">
      <Latitude>34.9459</Latitude>
      <Longitude>-106.4572</Longitude>
      <Elevation>1850</Elevation>
      <Channel code="BHZ" locationCode="00">
        <Description>Streckeisen STS-1</Description>
        <Latitude>34.9459</Latitude>
        <Longitude>-106.4572</Longitude>
        <Elevation>1850</Elevation>
        <Depth>145</Depth>
        <SampleRate>20</SampleRate>
      </Channel>
    </Station>
  </Network>
</FDSNStationXML>`))
	require.NoError(t, err)

	cs, ok := inv.ChannelStats()["BHZ"]
	require.True(t, ok)
	assert.Equal(t, 145.0, cs.Coordinates.Depth)
	assert.Equal(t, stream.Standard{}, cs.Standard)
	assert.Nil(t, cs.FormatSpecific)

	_, err = Marshal(inv)
	require.NoError(t, err)
}

func TestUnmarshalError(t *testing.T) {
	_, err := Unmarshal([]byte("<FDSNStationXML>"))
	require.Error(t, err)
	assert.True(t, Error.Has(err))
}
