package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	name string
	msg  *message.Attribute
	file *File

	// err is set when the message could not be decoded. It is reported
	// by the read methods.
	err error
}

func decodeAttribute(f *File, m message.Raw) *Attribute {
	a, err := message.DecodeAttribute(m.Data, f.sb.Sizes)
	if err != nil {
		return &Attribute{name: attrName(m, f.sb.Sizes), file: f, err: err}
	}
	return &Attribute{name: a.Name, msg: a, file: f}
}

// attrName returns the name of an attribute message without decoding its
// value.
func attrName(m message.Raw, sizes binary.Sizes) string {
	a, err := message.DecodeAttribute(m.Data, sizes)
	if err != nil {
		return ""
	}
	return a.Name
}

func encodeAttribute(name string, value any, sizes binary.Sizes) (message.Raw, error) {
	if name == "" {
		return message.Raw{}, fmt.Errorf("%w: empty attribute name", ErrInvalidPath)
	}
	dt, dims, data, err := dtype.Encode(value)
	if err != nil {
		return message.Raw{}, fmt.Errorf("attribute %s: %w", name, err)
	}
	space := message.Scalar()
	if dims != nil {
		space = message.Simple(dims...)
	}
	a := &message.Attribute{Name: name, Type: dt, Space: space, Data: data}
	return message.Raw{Type: message.TypeAttribute, Data: a.Encode(sizes)}, nil
}

func attrNames(attrs []*Attribute) []string {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.name
	}
	return names
}

func findAttr(attrs []*Attribute, name string) *Attribute {
	for _, a := range attrs {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Shape returns the dimensions, or nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.msg == nil || a.msg.Space.Kind != message.SpaceSimple {
		return nil
	}
	return a.msg.Space.Dims
}

// Datatype describes the element type, e.g. "float64" or "string[5]".
func (a *Attribute) Datatype() string {
	if a.msg == nil {
		return "unknown"
	}
	return a.msg.Type.String()
}

// Value returns the attribute as []int64, []uint64, []float64 or []string.
// Scalars are returned as the single element.
func (a *Attribute) Value() (any, error) {
	if a.err != nil {
		return nil, fmt.Errorf("attribute %s: %w", a.name, a.err)
	}
	n := a.msg.Space.Elements()
	v, err := dtype.Values(a.msg.Type, a.msg.Data, n, a.file.sb.Sizes, a.file.heaps)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", a.name, err)
	}
	if a.msg.Space.Kind != message.SpaceScalar {
		return v, nil
	}
	switch x := v.(type) {
	case []int64:
		return x[0], nil
	case []uint64:
		return x[0], nil
	case []float64:
		return x[0], nil
	case []string:
		return x[0], nil
	}
	return v, nil
}

func (a *Attribute) scalar() error {
	if a.err != nil {
		return fmt.Errorf("attribute %s: %w", a.name, a.err)
	}
	if n := a.msg.Space.Elements(); n != 1 {
		return fmt.Errorf("attribute %s: %d elements, want one", a.name, n)
	}
	return nil
}

// ReadScalarFloat64 reads a single numeric value as float64.
func (a *Attribute) ReadScalarFloat64() (float64, error) {
	if err := a.scalar(); err != nil {
		return 0, err
	}
	v, err := dtype.Decode[float64](a.msg.Type, a.msg.Data, 1)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", a.name, err)
	}
	return v[0], nil
}

// ReadScalarInt64 reads a single numeric value as int64.
func (a *Attribute) ReadScalarInt64() (int64, error) {
	if err := a.scalar(); err != nil {
		return 0, err
	}
	v, err := dtype.Decode[int64](a.msg.Type, a.msg.Data, 1)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", a.name, err)
	}
	return v[0], nil
}

// ReadScalarString reads a single fixed or variable-length string.
func (a *Attribute) ReadScalarString() (string, error) {
	if err := a.scalar(); err != nil {
		return "", err
	}
	v, err := dtype.Strings(a.msg.Type, a.msg.Data, 1, a.file.sb.Sizes, a.file.heaps)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", a.name, err)
	}
	return v[0], nil
}
