package object

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// maxContinuations bounds the continuation chain of one header.
const maxContinuations = 1 << 12

// Header is a decoded object header.
type Header struct {
	Version  int
	Addr     uint64
	Messages []message.Raw

	// Capacity is the message space of a single-chunk version 2 header,
	// which can be rewritten in place. It is zero for any other header.
	Capacity uint64
}

// Find returns the first message of type t.
func (h *Header) Find(t message.Type) (message.Raw, bool) {
	for _, m := range h.Messages {
		if m.Type == t {
			return m, true
		}
	}
	return message.Raw{}, false
}

// All returns every message of type t in header order.
func (h *Header) All(t message.Type) []message.Raw {
	var out []message.Raw
	for _, m := range h.Messages {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Read decodes the object header at addr.
func Read(r *binary.Reader, addr uint64) (*Header, error) {
	h := &Header{Addr: addr}

	fr := r.At(addr)
	first := fr.Bytes(4)
	if err := fr.Err(); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}

	var err error
	if string(first) == "OHDR" {
		h.Version = 2
		err = h.readV2(r)
	} else {
		h.Version = 1
		err = h.readV1(r)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}
	return h, nil
}

type block struct{ addr, length uint64 }

func (h *Header) readV1(r *binary.Reader) error {
	hr := r.At(h.Addr)
	if v := hr.U8(); v != 1 {
		return fmt.Errorf("version %d", v)
	}
	hr.Skip(1)
	count := int(hr.U16())
	hr.U32() // reference count
	size := uint64(hr.U32())
	if err := hr.Err(); err != nil {
		return err
	}

	// count includes nil and continuation messages.
	seen, conts := 0, 0
	queue := []block{{h.Addr + 16, size}}
	for len(queue) > 0 && seen < count {
		b := queue[0]
		queue = queue[1:]

		br := r.At(b.addr)
		end := b.addr + b.length
		for br.Pos()+8 <= end && seen < count {
			seen++
			m := message.Raw{Type: message.Type(br.U16())}
			n := int(br.U16())
			m.Flags = br.U8()
			br.Skip(3)
			m.Data = br.Bytes(n)
			if err := br.Err(); err != nil {
				return err
			}
			next, err := h.add(m, r.Sizes)
			if err != nil {
				return err
			}
			if next != nil {
				if conts++; conts > maxContinuations {
					return fmt.Errorf("too many continuation blocks")
				}
				queue = append(queue, *next)
			}
		}
	}
	return nil
}

const (
	v2SizeMask   = 0x03
	v2TrackOrder = 0x04
	v2Phase      = 0x10
	v2Times      = 0x20
)

func (h *Header) readV2(r *binary.Reader) error {
	hr := r.At(h.Addr)
	hr.Skip(4)
	if v := hr.U8(); v != 2 {
		return fmt.Errorf("version %d", v)
	}
	flags := hr.U8()
	if flags&v2Times != 0 {
		hr.Skip(16)
	}
	if flags&v2Phase != 0 {
		hr.Skip(4)
	}
	size := hr.Uint(1 << (flags & v2SizeMask))
	if err := hr.Err(); err != nil {
		return err
	}

	start := hr.Pos()
	if err := verify(r, h.Addr, start-h.Addr+size); err != nil {
		return err
	}

	conts := 0
	queue := []block{{start, size}}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		next, err := h.readV2Block(r, b, flags)
		if err != nil {
			return err
		}
		for _, c := range next {
			if conts++; conts > maxContinuations {
				return fmt.Errorf("too many continuation blocks")
			}
			if c.length < 8 {
				return fmt.Errorf("continuation block at %d too short", c.addr)
			}
			cr := r.At(c.addr)
			if !cr.Expect("OCHK") {
				return cr.Err()
			}
			if err := verify(r, c.addr, c.length-4); err != nil {
				return err
			}
			queue = append(queue, block{c.addr + 4, c.length - 8})
		}
	}

	if conts == 0 {
		h.Capacity = size
	}
	return nil
}

func (h *Header) readV2Block(r *binary.Reader, b block, flags uint8) ([]block, error) {
	headerLen := uint64(4)
	if flags&v2TrackOrder != 0 {
		headerLen += 2
	}

	var conts []block
	br := r.At(b.addr)
	end := b.addr + b.length
	// Fewer than headerLen bytes left is a gap.
	for br.Pos()+headerLen <= end {
		m := message.Raw{Type: message.Type(br.U8())}
		n := int(br.U16())
		m.Flags = br.U8()
		if flags&v2TrackOrder != 0 {
			br.U16()
		}
		m.Data = br.Bytes(n)
		if err := br.Err(); err != nil {
			return nil, err
		}
		next, err := h.add(m, r.Sizes)
		if err != nil {
			return nil, err
		}
		if next != nil {
			conts = append(conts, *next)
		}
	}
	return conts, nil
}

// add records m, or returns the block a continuation message points at.
func (h *Header) add(m message.Raw, sizes binary.Sizes) (*block, error) {
	switch m.Type {
	case message.TypeNil:
		return nil, nil
	case message.TypeContinuation:
		c, err := message.DecodeContinuation(m.Data, sizes)
		if err != nil {
			return nil, err
		}
		return &block{c.Addr, c.Length}, nil
	}
	h.Messages = append(h.Messages, m)
	return nil, nil
}

// verify checks the lookup3 checksum stored after the n bytes at addr.
func verify(r *binary.Reader, addr, n uint64) error {
	cr := r.At(addr)
	data := cr.Bytes(int(n))
	stored := cr.U32()
	if err := cr.Err(); err != nil {
		return err
	}
	if sum := binary.Lookup3(data); sum != stored {
		return fmt.Errorf("checksum mismatch at %d: stored %#08x, computed %#08x", addr, stored, sum)
	}
	return nil
}
