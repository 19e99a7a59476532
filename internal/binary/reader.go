package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Undefined is the all-ones address HDF5 uses for unallocated storage.
const Undefined = ^uint64(0)

// maxRead bounds a single field read so a corrupt length cannot exhaust memory.
const maxRead = 1 << 31

// Sizes holds the width in bytes of file addresses and lengths, as declared
// by the superblock.
type Sizes struct {
	Offset int
	Length int
}

// DefaultSizes are the widths used for files this module creates.
var DefaultSizes = Sizes{Offset: 8, Length: 8}

// IsUndefined reports whether v is the undefined value of an n-byte field.
func IsUndefined(v uint64, n int) bool {
	if n >= 8 {
		return v == Undefined
	}
	return v == 1<<(8*uint(n))-1
}

// Uint decodes a little-endian unsigned integer of len(b) <= 8 bytes.
func Uint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Reader decodes fields sequentially. The first error sticks: later reads
// return zero values and Err reports the failure.
type Reader struct {
	src io.ReaderAt
	pos int64
	end int64 // -1 when the source length is unknown
	err error
	Sizes
}

// NewReader returns a reader over src positioned at 0.
func NewReader(src io.ReaderAt, sizes Sizes) *Reader {
	return &Reader{src: src, end: -1, Sizes: sizes}
}

// NewBytesReader returns a reader over an in-memory block.
func NewBytesReader(b []byte, sizes Sizes) *Reader {
	return &Reader{src: bytes.NewReader(b), end: int64(len(b)), Sizes: sizes}
}

// At returns an independent reader over the same source positioned at off.
func (r *Reader) At(off uint64) *Reader {
	return &Reader{src: r.src, pos: int64(off), end: r.end, Sizes: r.Sizes}
}

// Pos returns the current position.
func (r *Reader) Pos() uint64 { return uint64(r.pos) }

// Err returns the first error encountered.
func (r *Reader) Err() error { return r.err }

// Failf records an error unless one is already recorded.
func (r *Reader) Failf(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

// Remaining returns the unread byte count of an in-memory reader, or -1.
func (r *Reader) Remaining() int {
	if r.end < 0 {
		return -1
	}
	if r.pos > r.end {
		return 0
	}
	return int(r.end - r.pos)
}

// Bytes reads n bytes.
func (r *Reader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > maxRead {
		r.Failf("read of %d bytes at %d out of range", n, r.pos)
		return nil
	}
	buf := make([]byte, n)
	m, err := r.src.ReadAt(buf, r.pos)
	if m < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = fmt.Errorf("read %d bytes at %d: %w", n, r.pos, err)
		return nil
	}
	r.pos += int64(n)
	return buf
}

// Rest reads everything left in an in-memory reader.
func (r *Reader) Rest() []byte {
	n := r.Remaining()
	if n < 0 {
		r.Failf("rest of unbounded reader")
		return nil
	}
	return r.Bytes(n)
}

// Expect reads len(sig) bytes and fails unless they equal sig.
func (r *Reader) Expect(sig string) bool {
	got := r.Bytes(len(sig))
	if r.err != nil {
		return false
	}
	if string(got) != sig {
		r.Failf("bad signature %q at %d, want %q", got, r.pos-int64(len(sig)), sig)
		return false
	}
	return true
}

func (r *Reader) U8() uint8 {
	b := r.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.Bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.Bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.Bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Uint reads an n-byte little-endian integer.
func (r *Reader) Uint(n int) uint64 {
	if n > 8 {
		r.Failf("integer width %d", n)
		return 0
	}
	return Uint(r.Bytes(n))
}

// Offset reads a file address. Undefined addresses of narrow files are
// widened to Undefined.
func (r *Reader) Offset() uint64 {
	v := r.Uint(r.Sizes.Offset)
	if r.err == nil && IsUndefined(v, r.Sizes.Offset) {
		return Undefined
	}
	return v
}

// Length reads a file length.
func (r *Reader) Length() uint64 { return r.Uint(r.Sizes.Length) }

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) { r.pos += int64(n) }
