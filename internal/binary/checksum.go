package binary

import (
	"encoding/binary"
	"math/bits"
)

// Lookup3 is Bob Jenkins' hashlittle with a zero seed, the checksum that
// guards version 2 metadata blocks.
func Lookup3(data []byte) uint32 {
	var h lookup3
	h.a = 0xdeadbeef + uint32(len(data))
	h.b, h.c = h.a, h.a

	for len(data) > 12 {
		h.a += binary.LittleEndian.Uint32(data[0:])
		h.b += binary.LittleEndian.Uint32(data[4:])
		h.c += binary.LittleEndian.Uint32(data[8:])
		h.mix()
		data = data[12:]
	}
	if len(data) == 0 {
		return h.c
	}
	for i, v := range data {
		shift := 8 * uint(i%4)
		switch i / 4 {
		case 0:
			h.a += uint32(v) << shift
		case 1:
			h.b += uint32(v) << shift
		default:
			h.c += uint32(v) << shift
		}
	}
	h.final()
	return h.c
}

type lookup3 struct{ a, b, c uint32 }

func (h *lookup3) mix() {
	h.a -= h.c
	h.a ^= bits.RotateLeft32(h.c, 4)
	h.c += h.b
	h.b -= h.a
	h.b ^= bits.RotateLeft32(h.a, 6)
	h.a += h.c
	h.c -= h.b
	h.c ^= bits.RotateLeft32(h.b, 8)
	h.b += h.a
	h.a -= h.c
	h.a ^= bits.RotateLeft32(h.c, 16)
	h.c += h.b
	h.b -= h.a
	h.b ^= bits.RotateLeft32(h.a, 19)
	h.a += h.c
	h.c -= h.b
	h.c ^= bits.RotateLeft32(h.b, 4)
	h.b += h.a
}

func (h *lookup3) final() {
	h.c ^= h.b
	h.c -= bits.RotateLeft32(h.b, 14)
	h.a ^= h.c
	h.a -= bits.RotateLeft32(h.c, 11)
	h.b ^= h.a
	h.b -= bits.RotateLeft32(h.a, 25)
	h.c ^= h.b
	h.c -= bits.RotateLeft32(h.b, 16)
	h.a ^= h.c
	h.a -= bits.RotateLeft32(h.c, 4)
	h.b ^= h.a
	h.b -= bits.RotateLeft32(h.a, 14)
	h.c ^= h.b
	h.c -= bits.RotateLeft32(h.b, 24)
}

// Fletcher32 is the checksum of the fletcher32 filter. Bytes are summed as
// big-endian 16-bit words; an odd trailing byte is the high half of a word.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	fold := func() {
		sum1 = sum1&0xffff + sum1>>16
		sum2 = sum2&0xffff + sum2>>16
	}

	words := len(data) / 2
	for words > 0 {
		n := min(words, 360)
		words -= n
		for ; n > 0; n-- {
			sum1 += uint32(data[0])<<8 | uint32(data[1])
			sum2 += sum1
			data = data[2:]
		}
		fold()
	}
	if len(data) == 1 {
		sum1 += uint32(data[0]) << 8
		sum2 += sum1
		fold()
	}
	fold()
	return sum2<<16 | sum1
}
