package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/layout"
	"github.com/robert-malhotra/go-asdf/internal/message"
	"github.com/robert-malhotra/go-asdf/internal/object"
)

// Dataset is a typed n-dimensional array.
type Dataset struct {
	file     *File
	path     string
	addr     uint64
	space    *message.Dataspace
	dtype    *message.Datatype
	layout   *message.Layout
	pipeline *message.Pipeline
	attrs    []*Attribute
}

func newDataset(f *File, p string, h *object.Header) (*Dataset, error) {
	d := &Dataset{file: f, path: p, addr: h.Addr}
	sizes := f.sb.Sizes

	for _, m := range h.Messages {
		var err error
		switch m.Type {
		case message.TypeDataspace:
			d.space, err = message.DecodeDataspace(m.Data, sizes)
		case message.TypeDatatype:
			if m.Shared() {
				err = fmt.Errorf("%w: committed datatype", ErrUnsupported)
				break
			}
			d.dtype, err = message.DecodeDatatype(m.Data, sizes)
		case message.TypeLayout:
			d.layout, err = message.DecodeLayout(m.Data, sizes)
		case message.TypeFilters:
			d.pipeline, err = message.DecodePipeline(m.Data, sizes)
		case message.TypeAttribute:
			d.attrs = append(d.attrs, decodeAttribute(f, m))
		}
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", p, err)
		}
	}

	switch {
	case d.space == nil:
		return nil, fmt.Errorf("dataset %s: no dataspace", p)
	case d.dtype == nil:
		return nil, fmt.Errorf("dataset %s: no datatype", p)
	}
	return d, nil
}

// Path returns the absolute path of the dataset.
func (d *Dataset) Path() string { return d.path }

// Name returns the last path element.
func (d *Dataset) Name() string { return path.Base(d.path) }

// Shape returns the dimensions, or nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.space.Kind != message.SpaceSimple {
		return nil
	}
	return d.space.Dims
}

// Len returns the number of elements.
func (d *Dataset) Len() uint64 { return d.space.Elements() }

// Datatype describes the element type, e.g. "float64" or "string[5]".
func (d *Dataset) Datatype() string { return d.dtype.String() }

// Filters returns the labels of the filter pipeline, e.g. "gzip-4".
func (d *Dataset) Filters() []string { return d.pipeline.Labels() }

// Storage describes the layout: compact, contiguous or chunked(<index>).
func (d *Dataset) Storage() string { return layout.Describe(d.layout) }

// Attrs lists attribute names in header order.
func (d *Dataset) Attrs() []string { return attrNames(d.attrs) }

// Attr returns the named attribute, or nil.
func (d *Dataset) Attr(name string) *Attribute { return findAttr(d.attrs, name) }

// ReadRaw returns the stored element bytes in row-major order.
func (d *Dataset) ReadRaw() ([]byte, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if d.space.Kind == message.SpaceNull {
		return nil, nil
	}
	s := layout.Space{Dims: d.Shape(), ElemSize: int(d.dtype.Size)}
	raw, err := layout.Read(d.file.r, d.layout, d.pipeline, s)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return raw, nil
}

// Read converts every element of a numeric dataset to T.
func Read[T dtype.Number](d *Dataset) ([]T, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	v, err := dtype.Decode[T](d.dtype, raw, d.Len())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return v, nil
}

// ReadFloat64 reads a numeric dataset as float64.
func (d *Dataset) ReadFloat64() ([]float64, error) { return Read[float64](d) }

// ReadInt64 reads a numeric dataset as int64.
func (d *Dataset) ReadInt64() ([]int64, error) { return Read[int64](d) }

// ReadUint8 reads a numeric dataset as bytes. Wider elements are
// truncated.
func (d *Dataset) ReadUint8() ([]uint8, error) { return Read[uint8](d) }

// ReadStrings reads a fixed or variable-length string dataset.
func (d *Dataset) ReadStrings() ([]string, error) {
	raw, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	v, err := dtype.Strings(d.dtype, raw, d.Len(), d.file.sb.Sizes, d.file.heaps)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return v, nil
}

// ReadScalarString reads a dataset holding a single string.
func (d *Dataset) ReadScalarString() (string, error) {
	v, err := d.ReadStrings()
	if err != nil {
		return "", err
	}
	if len(v) != 1 {
		return "", fmt.Errorf("dataset %s: %d elements, want one", d.path, len(v))
	}
	return v[0], nil
}
