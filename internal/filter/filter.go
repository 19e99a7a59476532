package filter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/klauspost/compress/zlib"

	binpkg "github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// maxInflate bounds the decompressed size of a single chunk.
const maxInflate = 1 << 31

// Decode reverses p on a stored chunk. Bit i of mask set means filter i was
// skipped when the chunk was written.
func Decode(p *message.Pipeline, mask uint32, data []byte, elemSize int) ([]byte, error) {
	if p == nil {
		return data, nil
	}
	var err error
	for i := len(p.Filters) - 1; i >= 0; i-- {
		if i < 32 && mask&(1<<uint(i)) != 0 {
			continue
		}
		f := p.Filters[i]
		switch f.ID {
		case message.FilterDeflate:
			data, err = inflate(data)
		case message.FilterShuffle:
			data = unshuffle(data, shuffleSize(f, elemSize))
		case message.FilterFletcher32:
			data, err = checkFletcher32(data)
		default:
			err = fmt.Errorf("%w: filter %s", message.ErrUnsupported, f.Label())
		}
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Encode applies p to a chunk before it is stored.
func Encode(p *message.Pipeline, data []byte, elemSize int) ([]byte, error) {
	if p == nil {
		return data, nil
	}
	var err error
	for _, f := range p.Filters {
		switch f.ID {
		case message.FilterDeflate:
			level := 6
			if len(f.Values) > 0 {
				level = int(f.Values[0])
			}
			data, err = deflate(data, level)
		case message.FilterShuffle:
			data = shuffle(data, shuffleSize(f, elemSize))
		case message.FilterFletcher32:
			data = binary.LittleEndian.AppendUint32(append([]byte(nil), data...), binpkg.Fletcher32(data))
		default:
			err = fmt.Errorf("%w: filter %s", message.ErrUnsupported, f.Label())
		}
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func shuffleSize(f message.Filter, elemSize int) int {
	if len(f.Values) > 0 && f.Values[0] > 0 {
		return int(f.Values[0])
	}
	return elemSize
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	n, err := io.Copy(&out, io.LimitReader(zr, maxInflate+1))
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if n > maxInflate {
		return nil, fmt.Errorf("deflate: chunk inflates beyond %d bytes", maxInflate)
	}
	return out.Bytes(), nil
}

func deflate(data []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, level)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return out.Bytes(), nil
}

// shuffle groups byte k of every element together. A trailing partial
// element is copied unchanged.
func shuffle(data []byte, size int) []byte {
	if size <= 1 || len(data) < size {
		return data
	}
	n := len(data) / size
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for k := 0; k < size; k++ {
			out[k*n+i] = data[i*size+k]
		}
	}
	copy(out[n*size:], data[n*size:])
	return out
}

func unshuffle(data []byte, size int) []byte {
	if size <= 1 || len(data) < size {
		return data
	}
	n := len(data) / size
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for k := 0; k < size; k++ {
			out[i*size+k] = data[k*n+i]
		}
	}
	copy(out[n*size:], data[n*size:])
	return out
}

// checkFletcher32 verifies and strips the trailing checksum. Files from old
// library releases store it byte-reversed, which is accepted too.
func checkFletcher32(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("fletcher32: chunk of %d bytes", len(data))
	}
	body := data[:len(data)-4]
	stored := binary.LittleEndian.Uint32(data[len(data)-4:])
	sum := binpkg.Fletcher32(body)
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, fmt.Errorf("fletcher32: stored %#08x, computed %#08x", stored, sum)
	}
	return body, nil
}

// Pipeline builds the pipeline for the given options in application order.
func Pipeline(shuffled bool, level int, fletcher bool, elemSize int) *message.Pipeline {
	p := &message.Pipeline{}
	if shuffled {
		p.Filters = append(p.Filters, message.Filter{ID: message.FilterShuffle, Values: []uint32{uint32(elemSize)}})
	}
	if level > 0 {
		p.Filters = append(p.Filters, message.Filter{ID: message.FilterDeflate, Values: []uint32{uint32(level)}})
	}
	if fletcher {
		p.Filters = append(p.Filters, message.Filter{ID: message.FilterFletcher32})
	}
	if len(p.Filters) == 0 {
		return nil
	}
	return p
}
