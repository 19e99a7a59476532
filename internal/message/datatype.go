package message

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// Class is a datatype class.
type Class uint8

const (
	ClassFixed     Class = 0
	ClassFloat     Class = 1
	ClassTime      Class = 2
	ClassString    Class = 3
	ClassBitfield  Class = 4
	ClassOpaque    Class = 5
	ClassCompound  Class = 6
	ClassReference Class = 7
	ClassEnum      Class = 8
	ClassVarLen    Class = 9
	ClassArray     Class = 10
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "vlen", "array",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// String padding types.
const (
	PadNullTerm = 0
	PadNullPad  = 1
	PadSpacePad = 2
)

const (
	charsetUTF8  = 1
	vlenIsString = 1
)

// Datatype describes the element encoding of a dataset or attribute.
type Datatype struct {
	Class   Class
	Version uint8
	Bits    [3]byte
	Size    uint32

	// Props holds the class properties. Fixed-point and floating-point
	// properties are kept raw and re-emitted on encode.
	Props []byte

	// Base is the element type of a variable-length type.
	Base *Datatype
}

// DecodeDatatype decodes a datatype message body.
func DecodeDatatype(data []byte, sizes binary.Sizes) (*Datatype, error) {
	r := binary.NewBytesReader(data, sizes)
	dt := readDatatype(r, len(data))
	return dt, decodeErr("datatype", r)
}

// readDatatype reads one datatype. avail bounds classes whose property
// length is not fixed; their properties are kept whole.
func readDatatype(r *binary.Reader, avail int) *Datatype {
	start := r.Pos()
	head := r.U8()
	dt := &Datatype{Class: Class(head & 0x0f), Version: head >> 4}
	copy(dt.Bits[:], r.Bytes(3))
	dt.Size = r.U32()
	if r.Err() != nil {
		return dt
	}

	switch dt.Class {
	case ClassFixed, ClassBitfield:
		dt.Props = r.Bytes(4)
	case ClassFloat:
		dt.Props = r.Bytes(12)
	case ClassTime:
		dt.Props = r.Bytes(2)
	case ClassString, ClassReference:
	case ClassVarLen:
		dt.Base = readDatatype(r, avail-int(r.Pos()-start))
	default:
		if n := avail - int(r.Pos()-start); n > 0 {
			dt.Props = r.Bytes(n)
		}
	}
	return dt
}

func (dt *Datatype) MessageType() Type { return TypeDatatype }

// Encode returns the datatype message body.
func (dt *Datatype) Encode(sizes binary.Sizes) []byte {
	b := binary.NewBuilder(sizes)
	dt.encode(b)
	return b.Bytes()
}

func (dt *Datatype) encode(b *binary.Builder) {
	version := dt.Version
	if version == 0 {
		version = 1
	}
	b.U8(byte(dt.Class) | version<<4)
	b.Raw(dt.Bits[:])
	b.U32(dt.Size)
	b.Raw(dt.Props)
	if dt.Base != nil {
		dt.Base.encode(b)
	}
}

// BigEndian reports the byte order of numeric classes.
func (dt *Datatype) BigEndian() bool {
	return dt.Bits[0]&0x01 != 0
}

// Signed reports whether a fixed-point type is two's complement.
func (dt *Datatype) Signed() bool {
	return dt.Class == ClassFixed && dt.Bits[0]&0x08 != 0
}

// Padding returns the padding type of a string.
func (dt *Datatype) Padding() int {
	if dt.Class == ClassVarLen {
		return int(dt.Bits[0]>>4) & 0x0f
	}
	return int(dt.Bits[0] & 0x0f)
}

// IsVarString reports whether dt is a variable-length string.
func (dt *Datatype) IsVarString() bool {
	return dt.Class == ClassVarLen && dt.Bits[0]&0x0f == vlenIsString
}

func (dt *Datatype) String() string {
	switch dt.Class {
	case ClassFixed:
		if dt.Signed() {
			return fmt.Sprintf("int%d", dt.Size*8)
		}
		return fmt.Sprintf("uint%d", dt.Size*8)
	case ClassFloat:
		return fmt.Sprintf("float%d", dt.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", dt.Size)
	case ClassVarLen:
		if dt.IsVarString() {
			return "vlen string"
		}
		if dt.Base != nil {
			return "vlen " + dt.Base.String()
		}
	}
	return dt.Class.String()
}

// Float64 returns the IEEE 754 little-endian double type.
func Float64() *Datatype {
	return &Datatype{
		Class: ClassFloat,
		Bits:  [3]byte{0x20, 0x3f, 0},
		Size:  8,
		Props: floatProps(64, 52, 11, 52, 1023),
	}
}

// Float32 returns the IEEE 754 little-endian single type.
func Float32() *Datatype {
	return &Datatype{
		Class: ClassFloat,
		Bits:  [3]byte{0x20, 0x1f, 0},
		Size:  4,
		Props: floatProps(32, 23, 8, 23, 127),
	}
}

func floatProps(precision uint16, expLoc, expSize, mantSize uint8, bias uint32) []byte {
	b := binary.NewBuilder(binary.DefaultSizes)
	b.U16(0)
	b.U16(precision)
	b.U8(expLoc)
	b.U8(expSize)
	b.U8(0)
	b.U8(mantSize)
	b.U32(bias)
	return b.Bytes()
}

// Fixed returns a little-endian integer type of size bytes.
func Fixed(size int, signed bool) *Datatype {
	dt := &Datatype{Class: ClassFixed, Size: uint32(size)}
	if signed {
		dt.Bits[0] = 0x08
	}
	b := binary.NewBuilder(binary.DefaultSizes)
	b.U16(0)
	b.U16(uint16(size * 8))
	dt.Props = b.Bytes()
	return dt
}

// FixedString returns a null-terminated UTF-8 string type of n bytes.
func FixedString(n int) *Datatype {
	return &Datatype{
		Class: ClassString,
		Bits:  [3]byte{PadNullTerm | charsetUTF8<<4, 0, 0},
		Size:  uint32(n),
	}
}
