package message

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// Filter identifiers.
const (
	FilterDeflate    uint16 = 1
	FilterShuffle    uint16 = 2
	FilterFletcher32 uint16 = 3
	FilterSzip       uint16 = 4
	FilterNbit       uint16 = 5
	FilterScaleOff   uint16 = 6
)

// FilterOptional marks a filter that may be skipped when it fails.
const FilterOptional uint16 = 0x0001

// Filter is one stage of a filter pipeline.
type Filter struct {
	ID     uint16
	Name   string
	Flags  uint16
	Values []uint32
}

// Label returns a short description such as gzip-4.
func (f Filter) Label() string {
	switch f.ID {
	case FilterDeflate:
		level := uint32(0)
		if len(f.Values) > 0 {
			level = f.Values[0]
		}
		return fmt.Sprintf("gzip-%d", level)
	case FilterShuffle:
		return "shuffle"
	case FilterFletcher32:
		return "fletcher32"
	case FilterSzip:
		return "szip"
	case FilterNbit:
		return "nbit"
	case FilterScaleOff:
		return "scaleoffset"
	}
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("filter-%d", f.ID)
}

// Pipeline is the ordered list of filters applied when writing chunks.
type Pipeline struct {
	Filters []Filter
}

// DecodePipeline decodes a version 1 or 2 filter pipeline message body.
func DecodePipeline(data []byte, sizes binary.Sizes) (*Pipeline, error) {
	r := binary.NewBytesReader(data, sizes)
	version := r.U8()
	n := int(r.U8())
	if version == 1 {
		r.Skip(6)
	} else if version != 2 {
		r.Failf("version %d", version)
	}

	p := &Pipeline{}
	for i := 0; i < n && r.Err() == nil; i++ {
		var f Filter
		f.ID = r.U16()
		nameLen := 0
		if version == 1 || f.ID >= 256 {
			nameLen = int(r.U16())
		}
		f.Flags = r.U16()
		nvalues := int(r.U16())
		if nameLen > 0 {
			name := r.Bytes(nameLen)
			f.Name = strings.TrimRight(string(name), "\x00")
			if version == 1 {
				r.Skip((8 - nameLen%8) % 8)
			}
		}
		for j := 0; j < nvalues; j++ {
			f.Values = append(f.Values, r.U32())
		}
		if version == 1 && nvalues%2 == 1 {
			r.Skip(4)
		}
		p.Filters = append(p.Filters, f)
	}
	return p, decodeErr("filter pipeline", r)
}

func (p *Pipeline) MessageType() Type { return TypeFilters }

// Encode returns a version 2 pipeline body. Names are only stored for
// filters outside the predefined range.
func (p *Pipeline) Encode(sizes binary.Sizes) []byte {
	b := binary.NewBuilder(sizes)
	b.U8(2)
	b.U8(uint8(len(p.Filters)))
	for _, f := range p.Filters {
		b.U16(f.ID)
		if f.ID >= 256 {
			b.U16(uint16(len(f.Name) + 1))
		}
		b.U16(f.Flags)
		b.U16(uint16(len(f.Values)))
		if f.ID >= 256 {
			b.Raw([]byte(f.Name))
			b.U8(0)
		}
		for _, v := range f.Values {
			b.U32(v)
		}
	}
	return b.Bytes()
}

// Labels returns the label of every filter in pipeline order.
func (p *Pipeline) Labels() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Filters))
	for i, f := range p.Filters {
		out[i] = f.Label()
	}
	return out
}
