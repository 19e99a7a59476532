package layout

import (
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// Space describes the array a layout stores.
type Space struct {
	// Dims is the dataset shape; nil for scalars.
	Dims     []uint64
	ElemSize int
}

// Elements returns the element count.
func (s Space) Elements() uint64 {
	n := uint64(1)
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

// Bytes returns the size of the whole array.
func (s Space) Bytes() uint64 {
	return s.Elements() * uint64(s.ElemSize)
}

// grid is the chunk grid of a chunked dataset.
type grid struct {
	dims   []uint64
	chunk  []uint64
	counts []uint64 // chunks per dimension
	elem   int
}

func newGrid(s Space, chunk []uint64) grid {
	g := grid{dims: s.Dims, chunk: chunk, elem: s.ElemSize}
	for i, d := range s.Dims {
		c := chunk[i]
		g.counts = append(g.counts, (d+c-1)/c)
	}
	return g
}

// total returns the number of chunks in the grid.
func (g grid) total() uint64 {
	n := uint64(1)
	for _, c := range g.counts {
		n *= c
	}
	return n
}

// chunkBytes returns the size of one unfiltered chunk.
func (g grid) chunkBytes() uint64 {
	n := uint64(g.elem)
	for _, c := range g.chunk {
		n *= c
	}
	return n
}

// offsets converts a row-major chunk index to element offsets.
func (g grid) offsets(index uint64) []uint64 {
	off := make([]uint64, len(g.dims))
	for i := len(g.dims) - 1; i >= 0; i-- {
		off[i] = index % g.counts[i] * g.chunk[i]
		index /= g.counts[i]
	}
	return off
}

// runs calls fn for every contiguous row a chunk at off shares with the
// array. chunkPos and arrayPos are element positions; n is the row length.
func (g grid) runs(off []uint64, fn func(chunkPos, arrayPos, n uint64)) {
	rank := len(g.dims)
	if rank == 0 {
		fn(0, 0, 1)
		return
	}
	for i := range off {
		if off[i] >= g.dims[i] {
			return
		}
	}

	last := rank - 1
	n := min(g.chunk[last], g.dims[last]-off[last])
	idx := make([]uint64, rank) // position inside the chunk
	for {
		var cpos, apos uint64
		for i := 0; i < rank; i++ {
			cpos = cpos*g.chunk[i] + idx[i]
			apos = apos*g.dims[i] + off[i] + idx[i]
		}
		fn(cpos, apos, n)

		// advance the odometer over all but the last dimension
		i := last - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < g.chunk[i] && off[i]+idx[i] < g.dims[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// scatter copies a decoded chunk into the array buffer.
func (g grid) scatter(dst, chunk []byte, off []uint64) {
	e := uint64(g.elem)
	g.runs(off, func(cpos, apos, n uint64) {
		if (cpos+n)*e <= uint64(len(chunk)) {
			copy(dst[apos*e:(apos+n)*e], chunk[cpos*e:(cpos+n)*e])
		}
	})
}

// gather extracts the chunk at off from the array buffer. Cells outside
// the array stay zero.
func (g grid) gather(src []byte, off []uint64) []byte {
	e := uint64(g.elem)
	out := make([]byte, g.chunkBytes())
	g.runs(off, func(cpos, apos, n uint64) {
		copy(out[cpos*e:(cpos+n)*e], src[apos*e:(apos+n)*e])
	})
	return out
}

// Describe returns a short summary of the storage, such as
// "chunked(fixed-array)".
func Describe(l *message.Layout) string {
	switch l.Class {
	case message.StorageCompact:
		return "compact"
	case message.StorageContiguous:
		return "contiguous"
	}
	return "chunked(" + l.Index.String() + ")"
}
