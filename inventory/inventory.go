// Package inventory converts between per-trace station metadata and the
// StationXML documents stored alongside ASDF waveforms.
package inventory

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"time"

	"github.com/zeebo/errs"

	"github.com/robert-malhotra/go-asdf/stream"
)

// Error is the error class for StationXML conversion failures.
var Error = errs.Class("inventory")

const (
	stationXMLNS  = "http://www.fdsn.org/xml/station/1"
	schemaVersion = "1.1"
	source        = "go-asdf"
	dateLayout    = "2006-01-02T15:04:05.999999999Z"
)

// Inventory is the subset of an FDSN StationXML document this module reads
// and writes.
type Inventory struct {
	XMLName       xml.Name   `xml:"FDSNStationXML"`
	Namespace     string     `xml:"xmlns,attr,omitempty"`
	SchemaVersion string     `xml:"schemaVersion,attr"`
	Source        string     `xml:"Source"`
	Created       string     `xml:"Created"`
	Networks      []*Network `xml:"Network"`
}

// Network groups stations under a network code.
type Network struct {
	Code     string     `xml:"code,attr"`
	Stations []*Station `xml:"Station"`
}

// Station is a site with its channels.
type Station struct {
	Code      string     `xml:"code,attr"`
	Latitude  float64    `xml:"Latitude"`
	Longitude float64    `xml:"Longitude"`
	Elevation float64    `xml:"Elevation"`
	Site      Site       `xml:"Site"`
	Channels  []*Channel `xml:"Channel"`

	// unlocated marks a station built from traces without coordinates.
	unlocated bool
}

// Site names a station location.
type Site struct {
	Name string `xml:"Name"`
}

// Channel is one recording channel. Description carries the JSON encoded
// standard and format-specific trace metadata.
type Channel struct {
	Code         string  `xml:"code,attr"`
	LocationCode string  `xml:"locationCode,attr"`
	StartDate    string  `xml:"startDate,attr,omitempty"`
	Description  string  `xml:"Description,omitempty"`
	Latitude     float64 `xml:"Latitude"`
	Longitude    float64 `xml:"Longitude"`
	Elevation    float64 `xml:"Elevation"`
	Depth        float64 `xml:"Depth"`
	Azimuth      float64 `xml:"Azimuth"`
	Dip          float64 `xml:"Dip"`
	SampleRate   float64 `xml:"SampleRate"`
}

type description struct {
	Standard       *stream.Standard `json:"standard,omitempty"`
	FormatSpecific map[string]any   `json:"format_specific,omitempty"`
}

// ChannelStats is the per-channel metadata recovered from an inventory.
type ChannelStats struct {
	Coordinates    stream.Coordinates
	Standard       stream.Standard
	FormatSpecific map[string]any
}

func newInventory() *Inventory {
	return &Inventory{
		Namespace:     stationXMLNS,
		SchemaVersion: schemaVersion,
		Source:        source,
		Created:       time.Now().UTC().Format(dateLayout),
	}
}

// FromStream builds a single-station inventory with one channel per trace.
func FromStream(st *stream.Stream) (*Inventory, error) {
	if st.Len() == 0 {
		return nil, Error.New("empty stream")
	}

	first := st.Traces[0]
	sta := &Station{Code: first.Stats.Station}
	if c := first.Stats.Coordinates; c != nil {
		sta.Latitude, sta.Longitude, sta.Elevation = c.Latitude, c.Longitude, c.Elevation
	} else {
		sta.unlocated = true
	}
	if s := first.Stats.Standard; s != nil {
		sta.Site.Name = s.StationName
	}

	for _, tr := range st.Traces {
		if tr.Stats.Station != sta.Code {
			return nil, Error.New("trace %s does not belong to station %s", tr.ID(), sta.Code)
		}
		ch, err := channelFromTrace(tr)
		if err != nil {
			return nil, err
		}
		sta.addChannel(ch)
	}

	inv := newInventory()
	inv.Networks = []*Network{{Code: first.Stats.Network, Stations: []*Station{sta}}}
	return inv, nil
}

func channelFromTrace(tr *stream.Trace) (*Channel, error) {
	ch := &Channel{
		Code:         tr.Stats.Channel,
		LocationCode: tr.Stats.Location,
		StartDate:    tr.Stats.StartTime.UTC().Format(dateLayout),
		SampleRate:   tr.Stats.SamplingRate,
	}
	if c := tr.Stats.Coordinates; c != nil {
		ch.Latitude, ch.Longitude = c.Latitude, c.Longitude
		ch.Elevation, ch.Depth = c.Elevation, c.Depth
	}
	if s := tr.Stats.Standard; s != nil {
		ch.Azimuth = s.HorizontalOrientation
		ch.Dip = s.VerticalOrientation
	}

	desc := description{Standard: tr.Stats.Standard, FormatSpecific: tr.Stats.FormatSpecific}
	if desc.Standard != nil || len(desc.FormatSpecific) > 0 {
		b, err := json.Marshal(desc)
		if err != nil {
			return nil, Error.New("channel %s: %v", tr.ID(), err)
		}
		ch.Description = string(b)
	}
	return ch, nil
}

// addChannel replaces a channel with the same location, code and start
// date, or appends it.
func (s *Station) addChannel(ch *Channel) {
	for i, existing := range s.Channels {
		if existing.Code == ch.Code && existing.LocationCode == ch.LocationCode && existing.StartDate == ch.StartDate {
			s.Channels[i] = ch
			return
		}
	}
	s.Channels = append(s.Channels, ch)
}

// Merge returns a new inventory holding every network, station and channel
// of a and b. Channels in b replace matching channels in a. Either argument
// may be nil.
func Merge(a, b *Inventory) *Inventory {
	out := newInventory()
	for _, inv := range []*Inventory{a, b} {
		if inv == nil {
			continue
		}
		for _, net := range inv.Networks {
			dstNet := out.network(net.Code)
			for _, sta := range net.Stations {
				dstSta := dstNet.station(sta)
				for _, ch := range sta.Channels {
					c := *ch
					dstSta.addChannel(&c)
				}
			}
		}
	}
	return out
}

func (inv *Inventory) network(code string) *Network {
	for _, n := range inv.Networks {
		if n.Code == code {
			return n
		}
	}
	n := &Network{Code: code}
	inv.Networks = append(inv.Networks, n)
	return n
}

// station returns the station with src's code, updating its site fields
// from src, or appends a copy of src without channels. Coordinates and site
// name are only taken from a src that carries them.
func (n *Network) station(src *Station) *Station {
	for _, s := range n.Stations {
		if s.Code == src.Code {
			if !src.unlocated {
				s.Latitude, s.Longitude, s.Elevation = src.Latitude, src.Longitude, src.Elevation
				s.unlocated = false
			}
			if src.Site.Name != "" {
				s.Site = src.Site
			}
			return s
		}
	}
	s := *src
	s.Channels = nil
	n.Stations = append(n.Stations, &s)
	return &s
}

// StationInventory is the part of an inventory describing one station.
type StationInventory struct {
	Network   string
	Station   string
	Inventory *Inventory
}

// Key returns the NET.STA station key.
func (s StationInventory) Key() string {
	return s.Network + "." + s.Station
}

// SplitStations splits the inventory into one single-station inventory per
// station, in document order.
func (inv *Inventory) SplitStations() []StationInventory {
	var out []StationInventory
	for _, net := range inv.Networks {
		for _, sta := range net.Stations {
			part := &Inventory{
				Namespace:     inv.Namespace,
				SchemaVersion: inv.SchemaVersion,
				Source:        inv.Source,
				Created:       inv.Created,
				Networks:      []*Network{{Code: net.Code, Stations: []*Station{sta}}},
			}
			out = append(out, StationInventory{Network: net.Code, Station: sta.Code, Inventory: part})
		}
	}
	return out
}

// ChannelStats maps channel codes to the metadata stored for them. Channel
// descriptions that are not JSON are ignored.
func (inv *Inventory) ChannelStats() map[string]ChannelStats {
	out := make(map[string]ChannelStats)
	for _, net := range inv.Networks {
		for _, sta := range net.Stations {
			for _, ch := range sta.Channels {
				cs := ChannelStats{
					Coordinates: stream.Coordinates{
						Latitude:  ch.Latitude,
						Longitude: ch.Longitude,
						Elevation: ch.Elevation,
						Depth:     ch.Depth,
					},
				}

				var desc description
				if ch.Description != "" && json.Unmarshal([]byte(ch.Description), &desc) == nil {
					if desc.Standard != nil {
						cs.Standard = *desc.Standard
					}
					cs.FormatSpecific = desc.FormatSpecific
				}
				out[ch.Code] = cs
			}
		}
	}
	return out
}

// Marshal encodes the inventory as StationXML.
func Marshal(inv *Inventory) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(inv); err != nil {
		return nil, Error.Wrap(err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Unmarshal decodes a StationXML document.
func Unmarshal(data []byte) (*Inventory, error) {
	inv := &Inventory{}
	if err := xml.Unmarshal(data, inv); err != nil {
		return nil, Error.Wrap(err)
	}
	// The decoded name carries the namespace, which Marshal writes itself.
	inv.XMLName = xml.Name{}
	if inv.Namespace == "" {
		inv.Namespace = stationXMLNS
	}
	return inv, nil
}
