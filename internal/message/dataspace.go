package message

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// SpaceKind distinguishes scalar, simple and null dataspaces.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0
	SpaceSimple SpaceKind = 1
	SpaceNull   SpaceKind = 2
)

// Dataspace is the shape of a dataset or attribute.
type Dataspace struct {
	Kind SpaceKind
	Dims []uint64
	Max  []uint64
}

// DecodeDataspace decodes a version 1 or 2 dataspace message body.
func DecodeDataspace(data []byte, sizes binary.Sizes) (*Dataspace, error) {
	r := binary.NewBytesReader(data, sizes)
	ds := readDataspace(r)
	return ds, decodeErr("dataspace", r)
}

func readDataspace(r *binary.Reader) *Dataspace {
	version := r.U8()
	ndims := int(r.U8())
	flags := r.U8()
	ds := &Dataspace{Kind: SpaceSimple}

	switch version {
	case 1:
		r.Skip(5)
		if ndims == 0 {
			ds.Kind = SpaceScalar
		}
	case 2:
		ds.Kind = SpaceKind(r.U8())
	default:
		r.Failf("version %d", version)
		return ds
	}

	for i := 0; i < ndims; i++ {
		ds.Dims = append(ds.Dims, r.Length())
	}
	if flags&0x01 != 0 {
		for i := 0; i < ndims; i++ {
			ds.Max = append(ds.Max, r.Length())
		}
	}
	return ds
}

// Simple returns a simple dataspace with fixed dims.
func Simple(dims ...uint64) *Dataspace {
	return &Dataspace{Kind: SpaceSimple, Dims: dims}
}

// Scalar returns a single-element dataspace.
func Scalar() *Dataspace {
	return &Dataspace{Kind: SpaceScalar}
}

func (ds *Dataspace) MessageType() Type { return TypeDataspace }

// Encode returns a version 2 dataspace message body.
func (ds *Dataspace) Encode(sizes binary.Sizes) []byte {
	b := binary.NewBuilder(sizes)
	b.U8(2)
	b.U8(uint8(len(ds.Dims)))
	var flags uint8
	if len(ds.Max) > 0 {
		flags |= 0x01
	}
	b.U8(flags)
	b.U8(uint8(ds.Kind))
	for _, d := range ds.Dims {
		b.Length(d)
	}
	for _, m := range ds.Max {
		b.Length(m)
	}
	return b.Bytes()
}

// Elements returns the number of elements in the space.
func (ds *Dataspace) Elements() uint64 {
	switch ds.Kind {
	case SpaceNull:
		return 0
	case SpaceScalar:
		return 1
	}
	n := uint64(1)
	for _, d := range ds.Dims {
		n *= d
	}
	return n
}

func (ds *Dataspace) String() string {
	switch ds.Kind {
	case SpaceScalar:
		return "scalar"
	case SpaceNull:
		return "null"
	}
	return fmt.Sprint(ds.Dims)
}
