package message

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// Attribute is a named value attached to an object header.
type Attribute struct {
	Name  string
	Type  *Datatype
	Space *Dataspace
	Data  []byte
}

// DecodeAttribute decodes an attribute message body of versions 1 to 3.
func DecodeAttribute(data []byte, sizes binary.Sizes) (*Attribute, error) {
	r := binary.NewBytesReader(data, sizes)
	version := r.U8()
	flags := r.U8()
	nameLen := int(r.U16())
	typeLen := int(r.U16())
	spaceLen := int(r.U16())
	if version == 3 {
		r.U8() // name charset
	}

	pad := func(n int) int { return n }
	switch version {
	case 1:
		pad = func(n int) int { return (n + 7) &^ 7 }
	case 2, 3:
		if flags&0x03 != 0 {
			return nil, fmt.Errorf("attribute message: %w: shared datatype or dataspace", ErrUnsupported)
		}
	default:
		r.Failf("version %d", version)
		return nil, decodeErr("attribute", r)
	}

	a := &Attribute{}
	name := r.Bytes(pad(nameLen))
	if nameLen <= len(name) {
		a.Name = strings.TrimRight(string(name[:nameLen]), "\x00")
	}
	if raw := r.Bytes(pad(typeLen)); r.Err() == nil {
		var err error
		if a.Type, err = DecodeDatatype(raw, sizes); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	if raw := r.Bytes(pad(spaceLen)); r.Err() == nil {
		var err error
		if a.Space, err = DecodeDataspace(raw, sizes); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	if err := decodeErr("attribute", r); err != nil {
		return nil, err
	}
	a.Data = r.Rest()
	return a, decodeErr("attribute", r)
}

func (a *Attribute) MessageType() Type { return TypeAttribute }

// Encode returns a version 3 attribute body with a UTF-8 name.
func (a *Attribute) Encode(sizes binary.Sizes) []byte {
	dt := a.Type.Encode(sizes)
	ds := a.Space.Encode(sizes)

	b := binary.NewBuilder(sizes)
	b.U8(3)
	b.U8(0)
	b.U16(uint16(len(a.Name) + 1))
	b.U16(uint16(len(dt)))
	b.U16(uint16(len(ds)))
	b.U8(charsetUTF8)
	b.Raw([]byte(a.Name))
	b.U8(0)
	b.Raw(dt)
	b.Raw(ds)
	b.Raw(a.Data)
	return b.Bytes()
}

// AttributeInfo records where dense attribute storage lives.
type AttributeInfo struct {
	Heap uint64
}

// Dense reports whether attributes are kept in a fractal heap.
func (ai *AttributeInfo) Dense() bool { return ai.Heap != binary.Undefined }

// DecodeAttributeInfo decodes an attribute info message body.
func DecodeAttributeInfo(data []byte, sizes binary.Sizes) (*AttributeInfo, error) {
	r := binary.NewBytesReader(data, sizes)
	if v := r.U8(); v != 0 {
		r.Failf("version %d", v)
	}
	flags := r.U8()
	if flags&0x01 != 0 {
		r.U16() // max creation index
	}
	ai := &AttributeInfo{Heap: r.Offset()}
	return ai, decodeErr("attribute info", r)
}
