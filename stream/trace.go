package stream

import (
	"fmt"
	"maps"
	"math"
	"time"
)

// Coordinates locates a channel.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"` // meters
	Depth     float64 `json:"depth"`     // meters below surface
}

// Standard holds the normalized descriptive fields attached to every trace.
type Standard struct {
	Source                string  `json:"source"`
	SourceFormat          string  `json:"source_format"`
	StationName           string  `json:"station_name"`
	Units                 string  `json:"units"`
	InstrumentPeriod      float64 `json:"instrument_period"`
	InstrumentDamping     float64 `json:"instrument_damping"`
	ProcessLevel          string  `json:"process_level"`
	SensorSerialNumber    string  `json:"sensor_serial_number"`
	Comments              string  `json:"comments"`
	HorizontalOrientation float64 `json:"horizontal_orientation"`
	VerticalOrientation   float64 `json:"vertical_orientation"`
	StructureType         string  `json:"structure_type"`
	CornerFrequency       float64 `json:"corner_frequency"`
	InstrumentSensitivity float64 `json:"instrument_sensitivity"`
}

// Parameters is a flat record of processing parameters. Values are string,
// bool, int64 or float64.
type Parameters map[string]any

// Software identifies the program that produced a processed trace.
type Software struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Website string `json:"website,omitempty" yaml:"website"`
}

// Stats is the metadata header of a trace.
type Stats struct {
	Network      string
	Station      string
	Location     string
	Channel      string
	StartTime    time.Time
	SamplingRate float64

	Coordinates    *Coordinates
	Standard       *Standard
	FormatSpecific map[string]any

	// ProcessingParameters is non-nil only on processed traces.
	ProcessingParameters Parameters
	Software             *Software
}

// Trace is one channel's contiguous time series.
type Trace struct {
	Stats Stats
	Data  []float64
}

// ID returns the SEED identifier NET.STA.LOC.CHA.
func (t *Trace) ID() string {
	return fmt.Sprintf("%s.%s.%s.%s", t.Stats.Network, t.Stats.Station, t.Stats.Location, t.Stats.Channel)
}

// EndTime returns the time of the last sample.
func (t *Trace) EndTime() time.Time {
	if len(t.Data) == 0 || t.Stats.SamplingRate <= 0 {
		return t.Stats.StartTime
	}
	delta := float64(len(t.Data)-1) / t.Stats.SamplingRate
	return t.Stats.StartTime.Add(time.Duration(math.Round(delta * float64(time.Second))))
}

// IsProcessed reports whether the trace carries processing parameters.
func (t *Trace) IsProcessed() bool {
	return t.Stats.ProcessingParameters != nil
}

// Copy returns a deep copy of the trace.
func (t *Trace) Copy() *Trace {
	c := &Trace{Stats: t.Stats}
	c.Data = append([]float64(nil), t.Data...)

	if t.Stats.Coordinates != nil {
		coords := *t.Stats.Coordinates
		c.Stats.Coordinates = &coords
	}
	if t.Stats.Standard != nil {
		std := *t.Stats.Standard
		c.Stats.Standard = &std
	}
	if t.Stats.Software != nil {
		sw := *t.Stats.Software
		c.Stats.Software = &sw
	}
	c.Stats.FormatSpecific = maps.Clone(t.Stats.FormatSpecific)
	c.Stats.ProcessingParameters = maps.Clone(t.Stats.ProcessingParameters)

	return c
}
