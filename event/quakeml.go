package event

import (
	"bytes"
	"encoding/xml"
	"time"
)

const (
	quakemlNS = "http://quakeml.org/xmlns/quakeml/1.2"
	bedNS     = "http://quakeml.org/xmlns/bed/1.2"
)

// Catalog is an ordered collection of events.
type Catalog struct {
	Events []*Event
}

type quakemlDoc struct {
	XMLName xml.Name
	NS      string          `xml:"xmlns:q,attr,omitempty"`
	BedNS   string          `xml:"xmlns,attr,omitempty"`
	Params  eventParameters `xml:"eventParameters"`
}

type eventParameters struct {
	PublicID string        `xml:"publicID,attr"`
	Events   []quakemlEvent `xml:"event"`
}

type quakemlEvent struct {
	PublicID             string             `xml:"publicID,attr"`
	PreferredOriginID    string             `xml:"preferredOriginID,omitempty"`
	PreferredMagnitudeID string             `xml:"preferredMagnitudeID,omitempty"`
	Origins              []quakemlOrigin    `xml:"origin"`
	Magnitudes           []quakemlMagnitude `xml:"magnitude"`
}

type quakemlOrigin struct {
	PublicID  string       `xml:"publicID,attr"`
	Time      stringValue  `xml:"time"`
	Latitude  realQuantity `xml:"latitude"`
	Longitude realQuantity `xml:"longitude"`
	Depth     realQuantity `xml:"depth"` // meters
}

type quakemlMagnitude struct {
	PublicID string       `xml:"publicID,attr"`
	Mag      realQuantity `xml:"mag"`
	Type     string       `xml:"type,omitempty"`
	OriginID string       `xml:"originID,omitempty"`
}

type stringValue struct {
	Value string `xml:"value"`
}

type realQuantity struct {
	Value float64 `xml:"value"`
}

// Marshal encodes the catalog as a QuakeML 1.2 document.
func Marshal(cat *Catalog) ([]byte, error) {
	doc := quakemlDoc{
		XMLName: xml.Name{Local: "q:quakeml"},
		NS:      quakemlNS,
		BedNS:   bedNS,
		Params:  eventParameters{PublicID: "smi:local/catalog"},
	}

	for _, ev := range cat.Events {
		if ev.ID == "" {
			return nil, Error.New("event without resource id")
		}
		originID := ev.ID + "/origin"
		magID := ev.ID + "/magnitude"

		doc.Params.Events = append(doc.Params.Events, quakemlEvent{
			PublicID:             ev.ID,
			PreferredOriginID:    originID,
			PreferredMagnitudeID: magID,
			Origins: []quakemlOrigin{{
				PublicID:  originID,
				Time:      stringValue{Value: ev.Time.UTC().Format(time.RFC3339Nano)},
				Latitude:  realQuantity{Value: ev.Latitude},
				Longitude: realQuantity{Value: ev.Longitude},
				Depth:     realQuantity{Value: ev.Depth * 1000},
			}},
			Magnitudes: []quakemlMagnitude{{
				PublicID: magID,
				Mag:      realQuantity{Value: ev.Magnitude},
				Type:     ev.MagnitudeType,
				OriginID: originID,
			}},
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, Error.Wrap(err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Unmarshal decodes a QuakeML document. The preferred origin and magnitude
// of each event are used, falling back to the first of each.
func Unmarshal(data []byte) (*Catalog, error) {
	var doc quakemlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, Error.Wrap(err)
	}
	if doc.XMLName.Local != "quakeml" && doc.XMLName.Local != "q:quakeml" {
		return nil, Error.New("unexpected root element %q", doc.XMLName.Local)
	}

	cat := &Catalog{}
	for _, qe := range doc.Params.Events {
		ev := &Event{ID: qe.PublicID}

		if o := preferredOrigin(qe); o != nil {
			t, err := time.Parse(time.RFC3339Nano, o.Time.Value)
			if err != nil {
				return nil, Error.New("event %s: origin time: %v", qe.PublicID, err)
			}
			ev.Time = t.UTC()
			ev.Latitude = o.Latitude.Value
			ev.Longitude = o.Longitude.Value
			ev.Depth = o.Depth.Value / 1000
		}
		if m := preferredMagnitude(qe); m != nil {
			ev.Magnitude = m.Mag.Value
			ev.MagnitudeType = m.Type
		}

		cat.Events = append(cat.Events, ev)
	}
	return cat, nil
}

func preferredOrigin(qe quakemlEvent) *quakemlOrigin {
	for i := range qe.Origins {
		if qe.Origins[i].PublicID == qe.PreferredOriginID {
			return &qe.Origins[i]
		}
	}
	if len(qe.Origins) > 0 {
		return &qe.Origins[0]
	}
	return nil
}

func preferredMagnitude(qe quakemlEvent) *quakemlMagnitude {
	for i := range qe.Magnitudes {
		if qe.Magnitudes[i].PublicID == qe.PreferredMagnitudeID {
			return &qe.Magnitudes[i]
		}
	}
	if len(qe.Magnitudes) > 0 {
		return &qe.Magnitudes[0]
	}
	return nil
}
