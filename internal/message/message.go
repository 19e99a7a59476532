package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// ErrUnsupported marks valid HDF5 constructs this engine does not handle.
var ErrUnsupported = errors.New("unsupported HDF5 feature")

// Type identifies a header message kind.
type Type uint16

const (
	TypeNil           Type = 0x00
	TypeDataspace     Type = 0x01
	TypeLinkInfo      Type = 0x02
	TypeDatatype      Type = 0x03
	TypeFillValue     Type = 0x05
	TypeLink          Type = 0x06
	TypeLayout        Type = 0x08
	TypeGroupInfo     Type = 0x0a
	TypeFilters       Type = 0x0b
	TypeAttribute     Type = 0x0c
	TypeContinuation  Type = 0x10
	TypeSymbolTable   Type = 0x11
	TypeModified      Type = 0x12
	TypeAttributeInfo Type = 0x15
)

// Message flag bits.
const (
	FlagConstant uint8 = 0x01
	FlagShared   uint8 = 0x02
)

// Raw is an undecoded message as stored in an object header.
type Raw struct {
	Type  Type
	Flags uint8
	Data  []byte
}

// Shared reports whether the body is a reference to a shared message.
func (m Raw) Shared() bool { return m.Flags&FlagShared != 0 }

// MessageType lets a Raw message be re-encoded unchanged.
func (m Raw) MessageType() Type { return m.Type }

// Encode returns the stored body.
func (m Raw) Encode(binary.Sizes) []byte { return m.Data }

// Encoder is a message the engine can write.
type Encoder interface {
	MessageType() Type
	Encode(sizes binary.Sizes) []byte
}

// decodeErr wraps the sticky error of r with the message kind.
func decodeErr(kind string, r *binary.Reader) error {
	if err := r.Err(); err != nil {
		return fmt.Errorf("%s message: %w", kind, err)
	}
	return nil
}

// Continuation points at a further block of header messages.
type Continuation struct {
	Addr   uint64
	Length uint64
}

// DecodeContinuation decodes a continuation message body.
func DecodeContinuation(data []byte, sizes binary.Sizes) (*Continuation, error) {
	r := binary.NewBytesReader(data, sizes)
	c := &Continuation{Addr: r.Offset(), Length: r.Length()}
	return c, decodeErr("continuation", r)
}

// SymbolTable locates the B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTree uint64
	Heap  uint64
}

// DecodeSymbolTable decodes a symbol table message body.
func DecodeSymbolTable(data []byte, sizes binary.Sizes) (*SymbolTable, error) {
	r := binary.NewBytesReader(data, sizes)
	st := &SymbolTable{BTree: r.Offset(), Heap: r.Offset()}
	return st, decodeErr("symbol table", r)
}

// FillValue is written into dataset headers. Values are never defined, so
// readers use the library default of zero.
type FillValue struct {
	// Chunked selects incremental instead of early space allocation.
	Chunked bool
}

func (f *FillValue) MessageType() Type { return TypeFillValue }

// Encode returns a version 3 fill value message.
func (f *FillValue) Encode(binary.Sizes) []byte {
	alloc := uint8(1) // early
	if f.Chunked {
		alloc = 3 // incremental
	}
	const writeIfSet = 2 << 2
	return []byte{3, alloc | writeIfSet}
}
