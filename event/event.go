// Package event models earthquake source information and its QuakeML
// encoding.
package event

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/errs"
)

// Error is the error class for event conversion and encoding failures.
var Error = errs.Class("event")

// Event is a located earthquake.
type Event struct {
	ID            string    `json:"id"` // QuakeML resource id
	Time          time.Time `json:"time"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Depth         float64   `json:"depth"` // km
	Magnitude     float64   `json:"magnitude"`
	MagnitudeType string    `json:"magnitude_type,omitempty"`
}

// Source is anything that can produce an event record.
type Source interface {
	Event() (*Event, error)
}

// Event returns e itself.
func (e *Event) Event() (*Event, error) {
	if e == nil {
		return nil, Error.New("nil event")
	}
	return e, nil
}

// Map is a plain key/value description of an event, see FromMap.
type Map map[string]any

// Event converts the map with FromMap.
func (m Map) Event() (*Event, error) {
	return FromMap(m)
}

// NewID returns a fresh local resource id.
func NewID() string {
	return "smi:local/" + uuid.NewString()
}

// FromMap builds an event from the keys id, time, lat, lon, depth (km) and
// magnitude. time may be a time.Time or an RFC 3339 string; the numeric
// keys accept any Go number or a numeric string. A missing id is replaced
// by a new local resource id.
func FromMap(m map[string]any) (*Event, error) {
	ev := &Event{}

	if raw, ok := m["id"]; ok && raw != nil {
		id, ok := raw.(string)
		if !ok {
			return nil, Error.New("id: expected string, got %T", raw)
		}
		ev.ID = id
	}
	if ev.ID == "" {
		ev.ID = NewID()
	}

	t, err := timeValue(m, "time")
	if err != nil {
		return nil, err
	}
	ev.Time = t

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"lat", &ev.Latitude},
		{"lon", &ev.Longitude},
		{"depth", &ev.Depth},
		{"magnitude", &ev.Magnitude},
	} {
		v, err := floatValue(m, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if mt, ok := m["magnitude_type"].(string); ok {
		ev.MagnitudeType = mt
	}

	if ev.Latitude < -90 || ev.Latitude > 90 {
		return nil, Error.New("lat %g out of range", ev.Latitude)
	}
	if ev.Longitude < -180 || ev.Longitude > 180 {
		return nil, Error.New("lon %g out of range", ev.Longitude)
	}

	return ev, nil
}

func timeValue(m map[string]any, key string) (time.Time, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return time.Time{}, Error.New("missing %q", key)
	}

	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, Error.New("%s: %v", key, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, Error.New("%s: unsupported type %T", key, raw)
	}
}

func floatValue(m map[string]any, key string) (float64, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, Error.New("missing %q", key)
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, Error.New("%s: %v", key, err)
		}
		f = n
	case string:
		var n float64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, Error.New("%s: %q is not a number", key, v)
		}
		f = n
	default:
		return 0, Error.New("%s: unsupported type %T", key, raw)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, Error.New("%s: not a finite number", key)
	}
	return f, nil
}
