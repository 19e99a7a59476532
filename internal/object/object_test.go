package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

var sizes = binary.DefaultSizes

func groupMessages() []message.Encoder {
	return []message.Encoder{
		&message.LinkInfo{},
		message.GroupInfo{},
		&message.Link{Name: "Waveforms", Addr: 400},
		&message.Link{Name: "Provenance", Addr: 800},
	}
}

// image places block at off inside an otherwise zero buffer.
func image(off int, block []byte) []byte {
	buf := make([]byte, off+len(block))
	copy(buf[off:], block)
	return buf
}

func TestFrameRoundTrip(t *testing.T) {
	body, err := EncodeMessages(groupMessages(), sizes)
	require.NoError(t, err)

	for _, space := range []uint64{uint64(len(body)), uint64(len(body)) + 2, 512, 70000} {
		hdr, err := Frame(body, space)
		require.NoError(t, err)
		assert.Equal(t, Size(space), uint64(len(hdr)))

		h, err := Read(binary.NewBytesReader(image(48, hdr), sizes), 48)
		require.NoError(t, err, "space %d", space)
		assert.Equal(t, 2, h.Version)
		assert.Equal(t, space, h.Capacity)
		require.Len(t, h.Messages, 4)

		links := h.All(message.TypeLink)
		require.Len(t, links, 2)
		l, err := message.DecodeLink(links[1].Data, sizes)
		require.NoError(t, err)
		assert.Equal(t, "Provenance", l.Name)
	}
}

func TestFrameTooSmall(t *testing.T) {
	_, err := Frame(make([]byte, 10), 8)
	assert.Error(t, err)
}

func TestDatatypeIsConstant(t *testing.T) {
	body, err := EncodeMessages([]message.Encoder{message.Float64()}, sizes)
	require.NoError(t, err)
	assert.Equal(t, message.FlagConstant, body[3])
}

func TestChecksumMismatch(t *testing.T) {
	body, err := EncodeMessages(groupMessages(), sizes)
	require.NoError(t, err)
	hdr, err := Frame(body, 256)
	require.NoError(t, err)
	hdr[20] ^= 0xff

	_, err = Read(binary.NewBytesReader(hdr, sizes), 0)
	assert.ErrorContains(t, err, "checksum mismatch")
}

func v1Message(b *binary.Builder, t message.Type, data []byte) {
	b.U16(uint16(t))
	b.U16(uint16(len(data)))
	b.U8(0)
	b.Zeros(3)
	b.Raw(data)
	b.Pad(8)
}

func TestReadV1WithContinuation(t *testing.T) {
	st := binary.NewBuilder(sizes)
	st.Offset(1000)
	st.Offset(2000)

	cont := binary.NewBuilder(sizes)
	cont.Offset(128)
	cont.Length(40)

	b := binary.NewBuilder(sizes)
	b.U8(1)
	b.U8(0)
	b.U16(3)
	b.U32(1)
	b.U32(48)
	b.Zeros(4)
	v1Message(b, message.TypeSymbolTable, st.Bytes())
	v1Message(b, message.TypeContinuation, cont.Bytes())
	b.Zeros(128 - b.Len())
	v1Message(b, message.TypeModified, []byte{1, 0, 0, 0, 0x10, 0x20, 0x30, 0x40})
	b.Zeros(24)

	h, err := Read(binary.NewBytesReader(b.Bytes(), sizes), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Version)
	assert.Zero(t, h.Capacity)
	require.Len(t, h.Messages, 2)

	m, ok := h.Find(message.TypeSymbolTable)
	require.True(t, ok)
	tab, err := message.DecodeSymbolTable(m.Data, sizes)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), tab.Heap)
	assert.Equal(t, message.TypeModified, h.Messages[1].Type)
}

func TestReadV2WithContinuation(t *testing.T) {
	// continuation block at 256
	extra, err := EncodeMessages([]message.Encoder{&message.Link{Name: "QuakeML", Addr: 900}}, sizes)
	require.NoError(t, err)
	ochk := binary.NewBuilder(sizes)
	ochk.Raw([]byte("OCHK"))
	ochk.Raw(extra)
	ochk.Checksum()

	cont := binary.NewBuilder(sizes)
	cont.Offset(256)
	cont.Length(uint64(ochk.Len()))
	body, err := EncodeMessages(append(groupMessages(), message.Raw{
		Type: message.TypeContinuation,
		Data: cont.Bytes(),
	}), sizes)
	require.NoError(t, err)
	hdr, err := Frame(body, uint64(len(body)))
	require.NoError(t, err)
	require.Less(t, len(hdr), 256)

	buf := image(0, hdr)
	buf = append(buf, make([]byte, 256-len(buf))...)
	buf = append(buf, ochk.Bytes()...)

	h, err := Read(binary.NewBytesReader(buf, sizes), 0)
	require.NoError(t, err)
	assert.Zero(t, h.Capacity)
	assert.Len(t, h.All(message.TypeLink), 3)
}

func TestReadBadAddress(t *testing.T) {
	_, err := Read(binary.NewBytesReader([]byte{1, 2}, sizes), 0)
	assert.Error(t, err)
}
