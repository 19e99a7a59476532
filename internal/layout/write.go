package layout

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/go-asdf/internal/alloc"
	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/filter"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// targetChunkBytes is the default chunk size.
const targetChunkBytes = 64 << 10

// Options controls how Write stores an array.
type Options struct {
	// Chunk is the chunk shape. Nil picks a default when chunking is
	// needed.
	Chunk []uint64

	// Pipeline is applied to every chunk. A pipeline forces chunking.
	Pipeline *message.Pipeline
}

// DefaultChunk returns a chunk shape of about 64 KiB: whole rows of the
// trailing dimensions, as many as fit.
func DefaultChunk(s Space) []uint64 {
	if len(s.Dims) == 0 {
		return nil
	}
	chunk := make([]uint64, len(s.Dims))
	row := uint64(s.ElemSize)
	for i := 1; i < len(s.Dims); i++ {
		chunk[i] = max(s.Dims[i], 1)
		row *= chunk[i]
	}
	chunk[0] = min(max(targetChunkBytes/row, 1), max(s.Dims[0], 1))
	return chunk
}

// Write stores data and returns the layout message describing it.
// Empty and scalar arrays, and unfiltered arrays without a chunk shape,
// are stored contiguous.
func Write(w io.WriterAt, a *alloc.Allocator, sizes binary.Sizes, data []byte, s Space, o Options) (*message.Layout, error) {
	if uint64(len(data)) != s.Bytes() {
		return nil, fmt.Errorf("%d bytes of data for %d elements of %d bytes", len(data), s.Elements(), s.ElemSize)
	}

	filtered := o.Pipeline != nil && len(o.Pipeline.Filters) > 0
	if len(data) == 0 || len(s.Dims) == 0 || (!filtered && o.Chunk == nil) {
		return writeContiguous(w, a, data)
	}

	chunk := o.Chunk
	if chunk == nil {
		chunk = DefaultChunk(s)
	}
	if len(chunk) != len(s.Dims) {
		return nil, fmt.Errorf("chunk rank %d for dataset rank %d", len(chunk), len(s.Dims))
	}
	for _, c := range chunk {
		if c == 0 {
			return nil, fmt.Errorf("zero chunk dimension")
		}
	}

	g := newGrid(s, chunk)
	entries := make([]entry, g.total())
	for i := range entries {
		stored, err := filter.Encode(o.Pipeline, g.gather(data, g.offsets(uint64(i))), s.ElemSize)
		if err != nil {
			return nil, err
		}
		addr := a.Alloc(uint64(len(stored)))
		if _, err := w.WriteAt(stored, int64(addr)); err != nil {
			return nil, err
		}
		entries[i] = entry{addr: addr, size: uint64(len(stored))}
	}

	l := &message.Layout{
		Class:    message.StorageChunked,
		Chunk:    chunk,
		ElemSize: uint32(s.ElemSize),
	}
	if len(entries) == 1 {
		l.Index = message.IndexSingle
		l.Addr = entries[0].addr
		if filtered {
			l.Filtered = true
			l.FilteredSize = entries[0].size
		}
		return l, nil
	}

	addr, pageBits, err := writeFixedArray(w, a, sizes, entries, filtered, g.chunkBytes())
	if err != nil {
		return nil, err
	}
	l.Index = message.IndexFixedArray
	l.Addr = addr
	l.PageBits = pageBits
	return l, nil
}

func writeContiguous(w io.WriterAt, a *alloc.Allocator, data []byte) (*message.Layout, error) {
	l := &message.Layout{Class: message.StorageContiguous, Addr: binary.Undefined}
	if len(data) == 0 {
		return l, nil
	}
	l.Addr = a.Alloc(uint64(len(data)))
	l.Size = uint64(len(data))
	if _, err := w.WriteAt(data, int64(l.Addr)); err != nil {
		return nil, err
	}
	return l, nil
}
