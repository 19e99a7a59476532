package object

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

const (
	prefixLen  = 4 + 1 + 1 // signature, version, flags
	msgHeadLen = 4         // type, size, flags
)

// EncodeMessages returns the message records of a version 2 header.
func EncodeMessages(msgs []message.Encoder, sizes binary.Sizes) ([]byte, error) {
	b := binary.NewBuilder(sizes)
	for _, m := range msgs {
		data := m.Encode(sizes)
		if len(data) > 0xffff {
			return nil, fmt.Errorf("message of type %#x is %d bytes", uint16(m.MessageType()), len(data))
		}
		var flags uint8
		switch v := m.(type) {
		case message.Raw:
			flags = v.Flags
		case *message.Datatype:
			flags = message.FlagConstant
		}
		b.U8(uint8(m.MessageType()))
		b.U16(uint16(len(data)))
		b.U8(flags)
		b.Raw(data)
	}
	return b.Bytes(), nil
}

// sizeWidth returns the flag bits and byte width of the chunk size field.
func sizeWidth(space uint64) (uint8, int) {
	switch {
	case space < 1<<8:
		return 0, 1
	case space < 1<<16:
		return 1, 2
	case space < 1<<32:
		return 2, 4
	}
	return 3, 8
}

// Size returns the total size of a framed header with the given space.
func Size(space uint64) uint64 {
	_, w := sizeWidth(space)
	return prefixLen + uint64(w) + space + 4
}

// Frame wraps body into a version 2 header whose message space is space
// bytes. The unused tail is filled with a nil message, or left as a gap
// when it is too short for one.
func Frame(body []byte, space uint64) ([]byte, error) {
	if uint64(len(body)) > space {
		return nil, fmt.Errorf("header body of %d bytes exceeds space %d", len(body), space)
	}
	flags, w := sizeWidth(space)

	b := binary.NewBuilder(binary.DefaultSizes)
	b.Raw([]byte("OHDR"))
	b.U8(2)
	b.U8(flags)
	b.Uint(space, w)
	b.Raw(body)

	free := int(space) - len(body)
	if free >= msgHeadLen {
		n := free - msgHeadLen
		for n > 0xffff {
			// split oversize slack into several nil messages
			b.U8(uint8(message.TypeNil))
			b.U16(0xffff - msgHeadLen)
			b.U8(0)
			b.Zeros(0xffff - msgHeadLen)
			n -= 0xffff
		}
		b.U8(uint8(message.TypeNil))
		b.U16(uint16(n))
		b.U8(0)
		b.Zeros(n)
	} else {
		b.Zeros(free)
	}
	b.Checksum()
	return b.Bytes(), nil
}
