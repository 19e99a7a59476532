package binary

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderReaderRoundTrip(t *testing.T) {
	b := NewBuilder(Sizes{Offset: 4, Length: 2})
	b.Raw([]byte("TEST"))
	b.U8(7)
	b.U16(0x1234)
	b.U32(0xdeadbeef)
	b.U64(1 << 40)
	b.Offset(0x01020304)
	b.Offset(Undefined)
	b.Length(513)
	b.Uint(0x0a0b0c, 3)
	b.Pad(8)
	require.Zero(t, b.Len()%8)

	r := NewBytesReader(b.Bytes(), Sizes{Offset: 4, Length: 2})
	assert.True(t, r.Expect("TEST"))
	assert.Equal(t, uint8(7), r.U8())
	assert.Equal(t, uint16(0x1234), r.U16())
	assert.Equal(t, uint32(0xdeadbeef), r.U32())
	assert.Equal(t, uint64(1<<40), r.U64())
	assert.Equal(t, uint64(0x01020304), r.Offset())
	assert.Equal(t, Undefined, r.Offset())
	assert.Equal(t, uint64(513), r.Length())
	assert.Equal(t, uint64(0x0a0b0c), r.Uint(3))
	require.NoError(t, r.Err())
	assert.Equal(t, b.Len()-int(r.Pos()), r.Remaining())
}

func TestReaderStickyError(t *testing.T) {
	r := NewBytesReader([]byte{1, 2, 3}, DefaultSizes)
	assert.Equal(t, uint16(0x0201), r.U16())
	assert.Zero(t, r.U32())
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)

	// later reads keep the first error and return zero values
	assert.Zero(t, r.U8())
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestReaderExpect(t *testing.T) {
	r := NewBytesReader([]byte("OHDRx"), DefaultSizes)
	assert.False(t, r.Expect("TREE"))
	assert.ErrorContains(t, r.Err(), "bad signature")
}

func TestReaderAtIsIndependent(t *testing.T) {
	r := NewBytesReader([]byte{0, 1, 2, 3, 4, 5}, DefaultSizes)
	r.Skip(2)
	sub := r.At(4)
	assert.Equal(t, uint8(4), sub.U8())
	assert.Equal(t, uint8(2), r.U8())
	assert.Equal(t, []byte{3, 4, 5}, r.Rest())
}

func TestIsUndefined(t *testing.T) {
	assert.True(t, IsUndefined(0xffffffff, 4))
	assert.False(t, IsUndefined(0xffffffff, 8))
	assert.True(t, IsUndefined(Undefined, 8))
	assert.True(t, IsUndefined(0xffff, 2))
}

func TestLookup3(t *testing.T) {
	assert.Equal(t, uint32(0xdeadbeef), Lookup3(nil))
	assert.Equal(t, uint32(0x17770551), Lookup3([]byte("Four score and seven years ago")))

	// every tail length takes a distinct path through the final mix
	seen := make(map[uint32]bool)
	data := []byte("abcdefghijklmnopqrstuvwxyz")
	for n := 1; n <= len(data); n++ {
		seen[Lookup3(data[:n])] = true
	}
	assert.Len(t, seen, len(data))
}

func TestBuilderChecksum(t *testing.T) {
	b := NewBuilder(DefaultSizes)
	b.Raw([]byte("FAHD"))
	b.Checksum()
	r := NewBytesReader(b.Bytes(), DefaultSizes)
	r.Skip(4)
	assert.Equal(t, Lookup3([]byte("FAHD")), r.U32())
}

func TestFletcher32(t *testing.T) {
	tests := []struct {
		data []byte
		want uint32
	}{
		{nil, 0},
		{[]byte{0x01, 0x02}, 0x01020102},
		{[]byte{0x01, 0x02, 0x03, 0x04}, 0x05080406},
		{[]byte{0x01, 0x02, 0x03}, 0x05040402},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fletcher32(tt.data), "%x", tt.data)
	}
}

func TestFletcher32LongInput(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = 0xff
	}
	// all-ones words keep both sums at 0xffff across block boundaries
	assert.Equal(t, uint32(0xffffffff), Fletcher32(data))
	assert.Equal(t, Fletcher32(data[:720]), Fletcher32(data))
}
