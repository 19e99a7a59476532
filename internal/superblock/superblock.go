package superblock

import (
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// Signature is the eight-byte HDF5 format signature.
const Signature = "\x89HDF\r\n\x1a\n"

// searchLimit is the last offset probed for a signature. The signature sits
// at 0 or at a power of two from 512 upward when a user block precedes it.
const searchLimit = 1 << 20

// ErrNoSignature is returned when no superblock is found.
var ErrNoSignature = errors.New("HDF5 signature not found")

// Superblock holds the file-level fields the engine needs.
type Superblock struct {
	Version int
	Sizes   binary.Sizes

	// At is the file position of the signature.
	At int64

	// Base is added to every address stored in the file.
	Base uint64

	// EOF is the end-of-file address relative to Base.
	EOF uint64

	// Root is the object header address of the root group.
	Root uint64

	// Extension is the superblock extension address (version 2 and 3).
	Extension uint64
}

// New returns the version 3 superblock of an empty file.
func New() *Superblock {
	return &Superblock{
		Version:   3,
		Sizes:     binary.DefaultSizes,
		Extension: binary.Undefined,
	}
}

// Find searches src for the signature and decodes the superblock behind it.
func Find(src io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, len(Signature))
	for at := int64(0); at <= searchLimit; at = next(at) {
		if _, err := src.ReadAt(sig, at); err != nil {
			break
		}
		if string(sig) == Signature {
			return decode(src, at)
		}
	}
	return nil, ErrNoSignature
}

func next(at int64) int64 {
	if at == 0 {
		return 512
	}
	return at * 2
}

func decode(src io.ReaderAt, at int64) (*Superblock, error) {
	r := binary.NewReader(src, binary.Sizes{}).At(uint64(at) + uint64(len(Signature)))
	sb := &Superblock{Version: int(r.U8()), At: at}

	switch sb.Version {
	case 0, 1:
		// free-space, root symbol table and shared header versions
		r.Skip(4)
		sb.Sizes = binary.Sizes{Offset: int(r.U8()), Length: int(r.U8())}
		// reserved, group K values, consistency flags
		r.Skip(1 + 2 + 2 + 4)
		if sb.Version == 1 {
			r.Skip(4)
		}
		if err := checkSizes(sb.Sizes); err != nil {
			return nil, err
		}
		r.Sizes = sb.Sizes
		sb.Base = r.Offset()
		r.Offset() // free-space info
		sb.EOF = r.Offset()
		r.Offset() // driver info
		// root group symbol table entry: name offset, then header address
		r.Offset()
		sb.Root = r.Offset()
		sb.Extension = binary.Undefined

	case 2, 3:
		sb.Sizes = binary.Sizes{Offset: int(r.U8()), Length: int(r.U8())}
		r.U8() // consistency flags
		if err := checkSizes(sb.Sizes); err != nil {
			return nil, err
		}
		r.Sizes = sb.Sizes
		sb.Base = r.Offset()
		sb.Extension = r.Offset()
		sb.EOF = r.Offset()
		sb.Root = r.Offset()
		stored := r.U32()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("superblock: %w", err)
		}
		body := binary.NewReader(src, sb.Sizes).At(uint64(at)).Bytes(sb.size() - 4)
		if body == nil || binary.Lookup3(body) != stored {
			return nil, fmt.Errorf("superblock: checksum mismatch")
		}

	default:
		return nil, fmt.Errorf("superblock: unsupported version %d", sb.Version)
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("superblock: %w", err)
	}
	return sb, nil
}

func checkSizes(s binary.Sizes) error {
	for _, n := range []int{s.Offset, s.Length} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("superblock: unsupported field width %d", n)
		}
	}
	return nil
}

// size is the encoded length of a version 2 or 3 superblock.
func (sb *Superblock) size() int {
	return len(Signature) + 4 + 4*sb.Sizes.Offset + 4
}

// Size returns the encoded length of the superblock Encode produces.
func (sb *Superblock) Size() int { return sb.size() }

// Encode returns the encoding of sb. Version 2 superblocks keep their
// version; everything else is written as version 3.
func (sb *Superblock) Encode() []byte {
	version := uint8(3)
	if sb.Version == 2 {
		version = 2
	}
	b := binary.NewBuilder(sb.Sizes)
	b.Raw([]byte(Signature))
	b.U8(version)
	b.U8(uint8(sb.Sizes.Offset))
	b.U8(uint8(sb.Sizes.Length))
	b.U8(0)
	b.Offset(sb.Base)
	b.Offset(sb.Extension)
	b.Offset(sb.EOF)
	b.Offset(sb.Root)
	b.Checksum()
	return b.Bytes()
}
