package filter

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/internal/message"
)

func samples(n int) []byte {
	var out []byte
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(math.Sin(float64(i)/10)))
	}
	return out
}

func TestPipelineRoundTrip(t *testing.T) {
	data := samples(500)
	tests := []struct {
		name     string
		shuffled bool
		level    int
		fletcher bool
	}{
		{"gzip", false, 4, false},
		{"shuffle", true, 0, false},
		{"fletcher32", false, 0, true},
		{"all", true, 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pipeline(tt.shuffled, tt.level, tt.fletcher, 8)
			require.NotNil(t, p)

			stored, err := Encode(p, data, 8)
			require.NoError(t, err)
			if tt.level > 0 {
				assert.Less(t, len(stored), len(data))
			}

			got, err := Decode(p, 0, stored, 8)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestNoPipeline(t *testing.T) {
	assert.Nil(t, Pipeline(false, 0, false, 8))
	out, err := Encode(nil, []byte{1, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, out)
}

func TestShuffleLayout(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5, 6, 7}
	out := shuffle(in, 2)
	assert.Equal(t, []byte{1, 3, 5, 2, 4, 6, 7}, out)
	assert.Equal(t, in, unshuffle(out, 2))
}

func TestMaskSkipsFilter(t *testing.T) {
	p := Pipeline(true, 3, false, 8)
	data := samples(10)
	// stored with the deflate stage skipped
	stored := shuffle(data, 8)

	got, err := Decode(p, 0b10, stored, 8)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFletcher32Mismatch(t *testing.T) {
	p := Pipeline(false, 0, true, 1)
	stored, err := Encode(p, []byte("waveform"), 1)
	require.NoError(t, err)
	stored[0] ^= 1

	_, err = Decode(p, 0, stored, 1)
	assert.ErrorContains(t, err, "fletcher32")
}

func TestFletcher32ByteReversed(t *testing.T) {
	p := Pipeline(false, 0, true, 1)
	stored, err := Encode(p, []byte("waveform"), 1)
	require.NoError(t, err)
	tail := stored[len(stored)-4:]
	tail[0], tail[1], tail[2], tail[3] = tail[3], tail[2], tail[1], tail[0]

	got, err := Decode(p, 0, stored, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("waveform"), got)
}

func TestUnknownFilter(t *testing.T) {
	p := &message.Pipeline{Filters: []message.Filter{{ID: message.FilterSzip}}}
	_, err := Decode(p, 0, []byte{0}, 1)
	assert.ErrorIs(t, err, message.ErrUnsupported)
}

func TestCorruptDeflate(t *testing.T) {
	p := Pipeline(false, 5, false, 1)
	_, err := Decode(p, 0, bytes.Repeat([]byte{0xab}, 16), 1)
	assert.ErrorContains(t, err, "deflate")
}
