package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/btree"
	"github.com/robert-malhotra/go-asdf/internal/filter"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// chunkRef locates one stored chunk.
type chunkRef struct {
	offsets []uint64
	addr    uint64
	size    uint64
	mask    uint32
}

// Read returns the raw bytes of the whole array.
func Read(r *binary.Reader, l *message.Layout, p *message.Pipeline, s Space) ([]byte, error) {
	total := s.Bytes()
	switch l.Class {
	case message.StorageCompact:
		out := make([]byte, total)
		copy(out, l.Compact)
		return out, nil

	case message.StorageContiguous:
		if l.Addr == binary.Undefined || total == 0 {
			return make([]byte, total), nil
		}
		cr := r.At(l.Addr)
		out := cr.Bytes(int(total))
		if err := cr.Err(); err != nil {
			return nil, fmt.Errorf("contiguous data: %w", err)
		}
		return out, nil

	case message.StorageChunked:
		return readChunked(r, l, p, s)
	}
	return nil, fmt.Errorf("%w: storage class %d", message.ErrUnsupported, l.Class)
}

func readChunked(r *binary.Reader, l *message.Layout, p *message.Pipeline, s Space) ([]byte, error) {
	if len(l.Chunk) != len(s.Dims) {
		return nil, fmt.Errorf("chunk rank %d for dataset rank %d", len(l.Chunk), len(s.Dims))
	}
	for _, c := range l.Chunk {
		if c == 0 {
			return nil, fmt.Errorf("zero chunk dimension")
		}
	}
	g := newGrid(s, l.Chunk)
	out := make([]byte, s.Bytes())
	if s.Elements() == 0 || l.Addr == binary.Undefined {
		return out, nil
	}

	refs, err := chunkRefs(r, l, p, g)
	if err != nil {
		return nil, err
	}

	for _, c := range refs {
		if c.addr == 0 || c.addr == binary.Undefined {
			continue
		}
		cr := r.At(c.addr)
		stored := cr.Bytes(int(c.size))
		if err := cr.Err(); err != nil {
			return nil, fmt.Errorf("chunk %v: %w", c.offsets, err)
		}
		data, err := filter.Decode(p, c.mask, stored, s.ElemSize)
		if err != nil {
			return nil, fmt.Errorf("chunk %v: %w", c.offsets, err)
		}
		g.scatter(out, data, c.offsets)
	}
	return out, nil
}

func chunkRefs(r *binary.Reader, l *message.Layout, p *message.Pipeline, g grid) ([]chunkRef, error) {
	raw := g.chunkBytes()
	filtered := p != nil && len(p.Filters) > 0

	switch l.Index {
	case message.IndexBTreeV1:
		chunks, err := btree.Chunks(r, l.Addr, len(g.dims))
		if err != nil {
			return nil, err
		}
		refs := make([]chunkRef, len(chunks))
		for i, c := range chunks {
			refs[i] = chunkRef{offsets: c.Offsets, addr: c.Addr, size: uint64(c.Size), mask: c.Mask}
		}
		return refs, nil

	case message.IndexSingle:
		c := chunkRef{offsets: make([]uint64, len(g.dims)), addr: l.Addr, size: raw}
		if l.Filtered {
			c.size, c.mask = l.FilteredSize, l.FilterMask
		}
		return []chunkRef{c}, nil

	case message.IndexImplicit:
		refs := make([]chunkRef, g.total())
		for i := range refs {
			refs[i] = chunkRef{offsets: g.offsets(uint64(i)), addr: l.Addr + uint64(i)*raw, size: raw}
		}
		return refs, nil

	case message.IndexFixedArray:
		entries, err := readFixedArray(r, l.Addr, filtered)
		if err != nil {
			return nil, err
		}
		return place(entries, g, raw, filtered), nil

	case message.IndexExtensible:
		entries, err := readExtensibleArray(r, l.Addr, g.total(), filtered)
		if err != nil {
			return nil, err
		}
		return place(entries, g, raw, filtered), nil
	}
	return nil, fmt.Errorf("%w: %s chunk index", message.ErrUnsupported, l.Index)
}

// place assigns grid offsets to array index entries in chunk order.
func place(entries []entry, g grid, raw uint64, filtered bool) []chunkRef {
	n := min(uint64(len(entries)), g.total())
	refs := make([]chunkRef, n)
	for i := range refs {
		e := entries[i]
		refs[i] = chunkRef{offsets: g.offsets(uint64(i)), addr: e.addr, size: raw}
		if filtered {
			refs[i].size, refs[i].mask = e.size, e.mask
		}
	}
	return refs
}
