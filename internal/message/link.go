package message

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// LinkKind is the target kind of a link.
type LinkKind uint8

const (
	LinkHard     LinkKind = 0
	LinkSoft     LinkKind = 1
	LinkExternal LinkKind = 64
)

// Link names a child of a group.
type Link struct {
	Name string
	Kind LinkKind

	// Addr is the object header address of a hard link.
	Addr uint64

	// Target is the path of a soft link or the object path of an
	// external link.
	Target string

	// File is the file name of an external link.
	File string
}

const (
	linkHasOrder   = 0x04
	linkHasKind    = 0x08
	linkHasCharset = 0x10
)

// DecodeLink decodes a link message body.
func DecodeLink(data []byte, sizes binary.Sizes) (*Link, error) {
	r := binary.NewBytesReader(data, sizes)
	if v := r.U8(); v != 1 {
		r.Failf("version %d", v)
		return nil, decodeErr("link", r)
	}
	flags := r.U8()

	l := &Link{}
	if flags&linkHasKind != 0 {
		l.Kind = LinkKind(r.U8())
	}
	if flags&linkHasOrder != 0 {
		r.U64()
	}
	if flags&linkHasCharset != 0 {
		r.U8()
	}
	nameLen := r.Uint(1 << (flags & 0x03))
	l.Name = string(r.Bytes(int(nameLen)))

	switch l.Kind {
	case LinkHard:
		l.Addr = r.Offset()
	case LinkSoft:
		l.Target = string(r.Bytes(int(r.U16())))
	case LinkExternal:
		info := r.Bytes(int(r.U16()))
		if len(info) > 0 {
			parts := bytes.SplitN(info[1:], []byte{0}, 3)
			if len(parts) >= 2 {
				l.File, l.Target = string(parts[0]), string(parts[1])
			}
		}
	default:
		return nil, fmt.Errorf("link %q: %w: link type %d", l.Name, ErrUnsupported, l.Kind)
	}
	return l, decodeErr("link", r)
}

func (l *Link) MessageType() Type { return TypeLink }

// Encode returns a hard or soft link body with a UTF-8 name. External
// links are not written.
func (l *Link) Encode(sizes binary.Sizes) []byte {
	width := 0 // the name length field is 1<<width bytes
	for width < 3 && len(l.Name) >= 1<<(8<<width) {
		width++
	}
	flags := uint8(width) | linkHasCharset
	if l.Kind == LinkSoft {
		flags |= linkHasKind
	}

	b := binary.NewBuilder(sizes)
	b.U8(1)
	b.U8(flags)
	if l.Kind == LinkSoft {
		b.U8(uint8(LinkSoft))
	}
	b.U8(charsetUTF8)
	b.Uint(uint64(len(l.Name)), 1<<width)
	b.Raw([]byte(l.Name))
	if l.Kind == LinkSoft {
		b.U16(uint16(len(l.Target)))
		b.Raw([]byte(l.Target))
	} else {
		b.Offset(l.Addr)
	}
	return b.Bytes()
}

// LinkInfo accompanies link messages in new-style groups.
type LinkInfo struct {
	// Heap is the fractal heap of dense link storage, or Undefined.
	Heap uint64
}

// Dense reports whether links are kept in a fractal heap.
func (li *LinkInfo) Dense() bool { return li.Heap != binary.Undefined }

// DecodeLinkInfo decodes a link info message body.
func DecodeLinkInfo(data []byte, sizes binary.Sizes) (*LinkInfo, error) {
	r := binary.NewBytesReader(data, sizes)
	if v := r.U8(); v != 0 {
		r.Failf("version %d", v)
	}
	if flags := r.U8(); flags&0x01 != 0 {
		r.U64() // max creation index
	}
	li := &LinkInfo{Heap: r.Offset()}
	return li, decodeErr("link info", r)
}

func (li *LinkInfo) MessageType() Type { return TypeLinkInfo }

// Encode returns a link info body for compact storage.
func (li *LinkInfo) Encode(sizes binary.Sizes) []byte {
	b := binary.NewBuilder(sizes)
	b.U8(0)
	b.U8(0)
	b.Offset(binary.Undefined)
	b.Offset(binary.Undefined)
	return b.Bytes()
}

// GroupInfo carries the storage thresholds of a new-style group. Defaults
// are always written.
type GroupInfo struct{}

func (GroupInfo) MessageType() Type { return TypeGroupInfo }

func (GroupInfo) Encode(binary.Sizes) []byte { return []byte{0, 0} }
