package binary

import "encoding/binary"

// Builder appends little-endian fields to a growing buffer.
type Builder struct {
	buf []byte
	Sizes
}

// NewBuilder returns an empty builder.
func NewBuilder(sizes Sizes) *Builder {
	return &Builder{Sizes: sizes}
}

// Bytes returns the encoded buffer.
func (b *Builder) Bytes() []byte { return b.buf }

// Len returns the number of bytes encoded so far.
func (b *Builder) Len() int { return len(b.buf) }

func (b *Builder) U8(v uint8) { b.buf = append(b.buf, v) }

func (b *Builder) U16(v uint16) { b.buf = binary.LittleEndian.AppendUint16(b.buf, v) }

func (b *Builder) U32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }

func (b *Builder) U64(v uint64) { b.buf = binary.LittleEndian.AppendUint64(b.buf, v) }

// Uint appends the low n bytes of v.
func (b *Builder) Uint(v uint64, n int) {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, byte(v>>(8*uint(i))))
	}
}

// Offset appends a file address. Undefined is truncated to the all-ones
// value of the address width.
func (b *Builder) Offset(v uint64) { b.Uint(v, b.Sizes.Offset) }

// Length appends a file length.
func (b *Builder) Length(v uint64) { b.Uint(v, b.Sizes.Length) }

// Raw appends p unchanged.
func (b *Builder) Raw(p []byte) { b.buf = append(b.buf, p...) }

// Zeros appends n zero bytes.
func (b *Builder) Zeros(n int) {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, 0)
	}
}

// Pad appends zeros up to the next multiple of align.
func (b *Builder) Pad(align int) {
	if r := len(b.buf) % align; r != 0 {
		b.Zeros(align - r)
	}
}

// Checksum appends the lookup3 checksum of everything encoded so far.
func (b *Builder) Checksum() {
	b.U32(Lookup3(b.buf))
}
