package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
)

// Local is a decoded local heap.
type Local struct {
	data []byte
}

// ReadLocal reads the local heap whose header is at addr.
func ReadLocal(r *binary.Reader, addr uint64) (*Local, error) {
	h := r.At(addr)
	h.Expect("HEAP")
	if v := h.U8(); h.Err() == nil && v != 0 {
		return nil, fmt.Errorf("local heap: unsupported version %d", v)
	}
	h.Skip(3)
	size := h.Length()
	h.Length() // free list head
	dataAddr := h.Offset()
	if err := h.Err(); err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", addr, err)
	}

	d := r.At(dataAddr)
	data := d.Bytes(int(size))
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("local heap data: %w", err)
	}
	return &Local{data: data}, nil
}

// String returns the NUL-terminated string at off.
func (l *Local) String(off uint64) string {
	if off >= uint64(len(l.data)) {
		return ""
	}
	s := l.data[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// Collection is a decoded global heap collection.
type Collection struct {
	objects map[uint32][]byte
}

// ReadCollection reads the global heap collection at addr.
func ReadCollection(r *binary.Reader, addr uint64) (*Collection, error) {
	h := r.At(addr)
	h.Expect("GCOL")
	if v := h.U8(); h.Err() == nil && v != 1 {
		return nil, fmt.Errorf("global heap: unsupported version %d", v)
	}
	h.Skip(3)
	size := h.Length()
	if err := h.Err(); err != nil {
		return nil, fmt.Errorf("global heap at %d: %w", addr, err)
	}

	c := &Collection{objects: make(map[uint32][]byte)}
	end := addr + size
	objHeader := uint64(8 + h.Sizes.Length)
	for h.Pos()+objHeader <= end {
		index := h.U16()
		h.Skip(6) // reference count and reserved
		n := h.Length()
		if index == 0 {
			break // free space runs to the end of the collection
		}
		c.objects[uint32(index)] = h.Bytes(int(n))
		h.Skip(int((8 - n%8) % 8))
		if err := h.Err(); err != nil {
			return nil, fmt.Errorf("global heap object %d: %w", index, err)
		}
	}
	return c, nil
}

// Object returns the object stored under index.
func (c *Collection) Object(index uint32) ([]byte, bool) {
	b, ok := c.objects[index]
	return b, ok
}

// Cache resolves global heap references, reading each collection once.
type Cache struct {
	r           *binary.Reader
	collections map[uint64]*Collection
}

// NewCache returns an empty cache over r.
func NewCache(r *binary.Reader) *Cache {
	return &Cache{r: r, collections: make(map[uint64]*Collection)}
}

// Resolve returns the object index of the collection at addr.
func (c *Cache) Resolve(addr uint64, index uint32) ([]byte, error) {
	col, ok := c.collections[addr]
	if !ok {
		var err error
		if col, err = ReadCollection(c.r, addr); err != nil {
			return nil, err
		}
		c.collections[addr] = col
	}
	b, ok := col.Object(index)
	if !ok {
		return nil, fmt.Errorf("global heap at %d: no object %d", addr, index)
	}
	return b, nil
}
