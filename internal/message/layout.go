package message

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// StorageClass is the raw data layout class.
type StorageClass uint8

const (
	StorageCompact    StorageClass = 0
	StorageContiguous StorageClass = 1
	StorageChunked    StorageClass = 2
)

// ChunkIndex is the chunk index type of a version 4 chunked layout.
type ChunkIndex uint8

const (
	// IndexBTreeV1 is the implied index of layout versions 1 to 3.
	IndexBTreeV1    ChunkIndex = 0
	IndexSingle     ChunkIndex = 1
	IndexImplicit   ChunkIndex = 2
	IndexFixedArray ChunkIndex = 3
	IndexExtensible ChunkIndex = 4
	IndexBTreeV2    ChunkIndex = 5
)

// singleFilteredBit marks a single chunk stored through the filter pipeline.
const singleFilteredBit = 0x02

var indexNames = [...]string{"btree-v1", "single", "implicit", "fixed-array", "extensible-array", "btree-v2"}

func (i ChunkIndex) String() string {
	if int(i) < len(indexNames) {
		return indexNames[i]
	}
	return fmt.Sprintf("index(%d)", uint8(i))
}

// Layout locates the raw data of a dataset.
type Layout struct {
	Version uint8
	Class   StorageClass

	// Addr is the contiguous data address or the chunk index address.
	Addr uint64

	// Size is the contiguous data size.
	Size uint64

	// Compact holds the data of a compact layout.
	Compact []byte

	// Chunk is the chunk shape, without the trailing element size.
	Chunk []uint64

	// ElemSize is the element size recorded with chunked layouts.
	ElemSize uint32

	Index ChunkIndex

	// FilteredSize and FilterMask describe a filtered single chunk.
	Filtered     bool
	FilteredSize uint64
	FilterMask   uint32

	// PageBits is the fixed array page size exponent.
	PageBits uint8

	// ExtParams are the five extensible array creation parameters:
	// max bits, index block elements, data block min pointers,
	// secondary block min pointers and max data block page bits.
	ExtParams [5]uint8
}

// DecodeLayout decodes a data layout message body of versions 1 to 4.
func DecodeLayout(data []byte, sizes binary.Sizes) (*Layout, error) {
	r := binary.NewBytesReader(data, sizes)
	l := &Layout{Version: r.U8()}

	switch l.Version {
	case 1, 2:
		decodeLayoutV1(r, l)
	case 3:
		decodeLayoutV3(r, l)
	case 4:
		decodeLayoutV4(r, l)
	default:
		r.Failf("version %d", l.Version)
	}
	return l, decodeErr("layout", r)
}

func decodeLayoutV1(r *binary.Reader, l *Layout) {
	ndims := int(r.U8())
	l.Class = StorageClass(r.U8())
	r.Skip(5)
	l.Addr = binary.Undefined
	if l.Class != StorageCompact {
		l.Addr = r.Offset()
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = uint64(r.U32())
	}

	switch l.Class {
	case StorageCompact:
		l.Compact = r.Bytes(int(r.U32()))
	case StorageContiguous:
		// dims is the dataset shape; the size follows from the dataspace.
	case StorageChunked:
		if ndims > 0 {
			l.Chunk = dims[:ndims-1]
			l.ElemSize = uint32(dims[ndims-1])
		}
	}
}

func decodeLayoutV3(r *binary.Reader, l *Layout) {
	l.Class = StorageClass(r.U8())
	switch l.Class {
	case StorageCompact:
		l.Compact = r.Bytes(int(r.U16()))
	case StorageContiguous:
		l.Addr = r.Offset()
		l.Size = r.Length()
	case StorageChunked:
		ndims := int(r.U8())
		l.Addr = r.Offset()
		for i := 0; i < ndims-1; i++ {
			l.Chunk = append(l.Chunk, uint64(r.U32()))
		}
		l.ElemSize = r.U32()
	default:
		r.Failf("storage class %d", l.Class)
	}
}

func decodeLayoutV4(r *binary.Reader, l *Layout) {
	l.Class = StorageClass(r.U8())
	if l.Class != StorageChunked {
		// Versions 3 and 4 share the compact and contiguous encodings.
		switch l.Class {
		case StorageCompact:
			l.Compact = r.Bytes(int(r.U16()))
		case StorageContiguous:
			l.Addr = r.Offset()
			l.Size = r.Length()
		default:
			r.Failf("storage class %d", l.Class)
		}
		return
	}

	flags := r.U8()
	ndims := int(r.U8())
	width := int(r.U8())
	for i := 0; i < ndims-1; i++ {
		l.Chunk = append(l.Chunk, r.Uint(width))
	}
	l.ElemSize = uint32(r.Uint(width))
	l.Index = ChunkIndex(r.U8())

	switch l.Index {
	case IndexSingle:
		if flags&singleFilteredBit != 0 {
			l.Filtered = true
			l.FilteredSize = r.Length()
			l.FilterMask = r.U32()
		}
	case IndexImplicit:
	case IndexFixedArray:
		l.PageBits = r.U8()
	case IndexExtensible:
		copy(l.ExtParams[:], r.Bytes(5))
	case IndexBTreeV2:
		r.Skip(6)
	default:
		r.Failf("chunk index type %d", l.Index)
	}
	l.Addr = r.Offset()
}

func (l *Layout) MessageType() Type { return TypeLayout }

// Encode returns a version 3 body for compact and contiguous layouts and a
// version 4 body for chunked ones.
func (l *Layout) Encode(sizes binary.Sizes) []byte {
	b := binary.NewBuilder(sizes)
	if l.Class != StorageChunked {
		b.U8(3)
		b.U8(uint8(l.Class))
		if l.Class == StorageCompact {
			b.U16(uint16(len(l.Compact)))
			b.Raw(l.Compact)
		} else {
			b.Offset(l.Addr)
			b.Length(l.Size)
		}
		return b.Bytes()
	}

	dims := append(append([]uint64(nil), l.Chunk...), uint64(l.ElemSize))
	width := 1
	for _, d := range dims {
		for width < 8 && d >= 1<<(8*uint(width)) {
			width++
		}
	}

	var flags uint8
	if l.Index == IndexSingle && l.Filtered {
		flags |= singleFilteredBit
	}
	b.U8(4)
	b.U8(uint8(StorageChunked))
	b.U8(flags)
	b.U8(uint8(len(dims)))
	b.U8(uint8(width))
	for _, d := range dims {
		b.Uint(d, width)
	}
	b.U8(uint8(l.Index))
	switch l.Index {
	case IndexSingle:
		if l.Filtered {
			b.Length(l.FilteredSize)
			b.U32(l.FilterMask)
		}
	case IndexFixedArray:
		b.U8(l.PageBits)
	case IndexExtensible:
		b.Raw(l.ExtParams[:])
	}
	b.Offset(l.Addr)
	return b.Bytes()
}
