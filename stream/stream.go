// Package stream holds the in-memory model of seismic waveforms: traces of
// float64 samples with their metadata header, grouped into streams.
package stream

import (
	"errors"
	"fmt"
)

// ErrInhomogeneous is returned by Validate for streams that mix stations or
// mix raw and processed traces.
var ErrInhomogeneous = errors.New("inhomogeneous stream")

// Stream is an ordered list of traces.
type Stream struct {
	Traces []*Trace
}

// New returns a stream holding traces.
func New(traces ...*Trace) *Stream {
	return &Stream{Traces: traces}
}

// Len returns the number of traces.
func (s *Stream) Len() int {
	return len(s.Traces)
}

// Copy returns a deep copy of the stream.
func (s *Stream) Copy() *Stream {
	c := &Stream{Traces: make([]*Trace, len(s.Traces))}
	for i, tr := range s.Traces {
		c.Traces[i] = tr.Copy()
	}
	return c
}

// Station returns the station code of the first trace.
func (s *Stream) Station() string {
	if len(s.Traces) == 0 {
		return ""
	}
	return s.Traces[0].Stats.Station
}

// Network returns the network code of the first trace.
func (s *Stream) Network() string {
	if len(s.Traces) == 0 {
		return ""
	}
	return s.Traces[0].Stats.Network
}

// IsProcessed reports whether the stream holds processed data. Only the
// first trace is checked.
func (s *Stream) IsProcessed() bool {
	return len(s.Traces) > 0 && s.Traces[0].IsProcessed()
}

// Validate checks that every trace shares the first trace's network and
// station and has the same raw/processed classification.
func (s *Stream) Validate() error {
	if len(s.Traces) == 0 {
		return fmt.Errorf("%w: no traces", ErrInhomogeneous)
	}

	first := s.Traces[0]
	for _, tr := range s.Traces[1:] {
		if tr.Stats.Network != first.Stats.Network || tr.Stats.Station != first.Stats.Station {
			return fmt.Errorf("%w: %s does not belong to station %s.%s",
				ErrInhomogeneous, tr.ID(), first.Stats.Network, first.Stats.Station)
		}
		if tr.IsProcessed() != first.IsProcessed() {
			return fmt.Errorf("%w: %s mixes raw and processed traces", ErrInhomogeneous, tr.ID())
		}
	}
	return nil
}
