package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	binpkg "github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// Number is the set of element types Decode produces.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Resolver returns global heap objects.
type Resolver interface {
	Resolve(addr uint64, index uint32) ([]byte, error)
}

func order(dt *message.Datatype) binary.ByteOrder {
	if dt.BigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func need(dt *message.Datatype, raw []byte, n uint64) error {
	if dt.Size == 0 {
		return fmt.Errorf("zero-sized %s elements", dt)
	}
	if want := n * uint64(dt.Size); uint64(len(raw)) < want {
		return fmt.Errorf("%d bytes of data for %d %s elements", len(raw), n, dt)
	}
	return nil
}

// Decode converts n numeric elements to T.
func Decode[T Number](dt *message.Datatype, raw []byte, n uint64) ([]T, error) {
	if err := need(dt, raw, n); err != nil {
		return nil, err
	}
	bo := order(dt)
	size := int(dt.Size)
	out := make([]T, n)

	switch dt.Class {
	case message.ClassFixed:
		if size > 8 {
			return nil, fmt.Errorf("%w: %d-byte integers", message.ErrUnsupported, size)
		}
		for i := range out {
			v := readUint(bo, raw[i*size:(i+1)*size])
			if dt.Signed() {
				// sign-extend from size bytes
				shift := uint(64 - 8*size)
				out[i] = T(int64(v<<shift) >> shift)
			} else {
				out[i] = T(v)
			}
		}
	case message.ClassFloat:
		for i := range out {
			b := raw[i*size : (i+1)*size]
			switch size {
			case 4:
				out[i] = T(math.Float32frombits(bo.Uint32(b)))
			case 8:
				out[i] = T(math.Float64frombits(bo.Uint64(b)))
			default:
				return nil, fmt.Errorf("%w: %d-byte floats", message.ErrUnsupported, size)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s is not numeric", message.ErrUnsupported, dt)
	}
	return out, nil
}

func readUint(bo binary.ByteOrder, b []byte) uint64 {
	var v uint64
	if bo == binary.BigEndian {
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v
	}
	return binpkg.Uint(b)
}

// Strings converts n fixed or variable-length string elements.
func Strings(dt *message.Datatype, raw []byte, n uint64, sizes binpkg.Sizes, res Resolver) ([]string, error) {
	switch {
	case dt.Class == message.ClassString:
		if err := need(dt, raw, n); err != nil {
			return nil, err
		}
		out := make([]string, n)
		size := int(dt.Size)
		for i := range out {
			out[i] = trim(raw[i*size:(i+1)*size], dt.Padding())
		}
		return out, nil

	case dt.IsVarString():
		if err := need(dt, raw, n); err != nil {
			return nil, err
		}
		if res == nil {
			return nil, fmt.Errorf("variable-length strings need a heap")
		}
		out := make([]string, n)
		r := binpkg.NewBytesReader(raw, sizes)
		for i := range out {
			length := r.U32()
			addr := r.Offset()
			index := r.U32()
			if err := r.Err(); err != nil {
				return nil, err
			}
			if length == 0 || addr == binpkg.Undefined || addr == 0 {
				continue
			}
			b, err := res.Resolve(addr, index)
			if err != nil {
				return nil, err
			}
			if int(length) < len(b) {
				b = b[:length]
			}
			out[i] = trim(b, dt.Padding())
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s is not a string type", message.ErrUnsupported, dt)
}

func trim(b []byte, pad int) string {
	switch pad {
	case message.PadSpacePad:
		b = bytes.TrimRight(b, " ")
	default:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
	}
	return string(b)
}

// Values converts n elements to []int64, []uint64, []float64 or []string
// by class.
func Values(dt *message.Datatype, raw []byte, n uint64, sizes binpkg.Sizes, res Resolver) (any, error) {
	switch {
	case dt.Class == message.ClassFixed && dt.Signed():
		return Decode[int64](dt, raw, n)
	case dt.Class == message.ClassFixed:
		return Decode[uint64](dt, raw, n)
	case dt.Class == message.ClassFloat:
		return Decode[float64](dt, raw, n)
	case dt.Class == message.ClassString, dt.IsVarString():
		return Strings(dt, raw, n, sizes, res)
	}
	return nil, fmt.Errorf("%w: values of %s", message.ErrUnsupported, dt)
}
