package dtype

import (
	"encoding/binary"
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/message"
)

// Encode returns the datatype, shape and little-endian encoding of v.
// Scalars have a nil shape; slices are one-dimensional. Strings are stored
// as null-terminated fixed strings sized for the longest element.
func Encode(v any) (*message.Datatype, []uint64, []byte, error) {
	switch x := v.(type) {
	case int:
		v = int64(x)
	case []int:
		s := make([]int64, len(x))
		for i, e := range x {
			s[i] = int64(e)
		}
		v = s
	case string:
		dt, data := encodeStrings([]string{x})
		return dt, nil, data, nil
	case []string:
		dt, data := encodeStrings(x)
		return dt, []uint64{uint64(len(x))}, data, nil
	}

	var dt *message.Datatype
	var dims []uint64
	switch x := v.(type) {
	case float64:
		dt = message.Float64()
	case float32:
		dt = message.Float32()
	case int8, int16, int32, int64:
		dt = message.Fixed(binary.Size(x), true)
	case uint8, uint16, uint32, uint64:
		dt = message.Fixed(binary.Size(x), false)
	case []float64:
		dt, dims = message.Float64(), []uint64{uint64(len(x))}
	case []float32:
		dt, dims = message.Float32(), []uint64{uint64(len(x))}
	case []int8:
		dt, dims = message.Fixed(1, true), []uint64{uint64(len(x))}
	case []int16:
		dt, dims = message.Fixed(2, true), []uint64{uint64(len(x))}
	case []int32:
		dt, dims = message.Fixed(4, true), []uint64{uint64(len(x))}
	case []int64:
		dt, dims = message.Fixed(8, true), []uint64{uint64(len(x))}
	case []uint8:
		dt, dims = message.Fixed(1, false), []uint64{uint64(len(x))}
	case []uint16:
		dt, dims = message.Fixed(2, false), []uint64{uint64(len(x))}
	case []uint32:
		dt, dims = message.Fixed(4, false), []uint64{uint64(len(x))}
	case []uint64:
		dt, dims = message.Fixed(8, false), []uint64{uint64(len(x))}
	default:
		return nil, nil, nil, fmt.Errorf("%w: values of type %T", message.ErrUnsupported, v)
	}

	data, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		return nil, nil, nil, err
	}
	return dt, dims, data, nil
}

func encodeStrings(s []string) (*message.Datatype, []byte) {
	size := 1
	for _, e := range s {
		if len(e)+1 > size {
			size = len(e) + 1
		}
	}
	data := make([]byte, size*len(s))
	for i, e := range s {
		copy(data[i*size:], e)
	}
	return message.FixedString(size), data
}
