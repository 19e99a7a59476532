package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/heap"
)

const (
	nodeGroup = 0
	nodeChunk = 1

	// maxLevel bounds the depth of a tree.
	maxLevel = 64

	cacheSoftLink = 2
)

// Entry is one member of a symbol-table group.
type Entry struct {
	Name string
	Addr uint64

	// Soft is the target path of a soft link. Addr is undefined then.
	Soft string
}

// Chunk locates one stored chunk.
type Chunk struct {
	// Offsets is the element offset of the chunk in each dimension.
	Offsets []uint64
	Size    uint32
	Mask    uint32
	Addr    uint64
}

type node struct {
	kind     uint8
	level    uint8
	keys     [][]byte
	children []uint64
}

// walker reads nodes and refuses to visit one twice.
type walker struct {
	r       *binary.Reader
	keySize int
	visited map[uint64]bool
}

func (w *walker) read(addr uint64, kind uint8) (*node, error) {
	if w.visited[addr] {
		return nil, fmt.Errorf("B-tree node %d visited twice", addr)
	}
	w.visited[addr] = true

	nr := w.r.At(addr)
	nr.Expect("TREE")
	n := &node{kind: nr.U8(), level: nr.U8()}
	used := int(nr.U16())
	nr.Offset() // left sibling
	nr.Offset() // right sibling
	if err := nr.Err(); err != nil {
		return nil, fmt.Errorf("B-tree node at %d: %w", addr, err)
	}
	if n.kind != kind {
		return nil, fmt.Errorf("B-tree node at %d: type %d, want %d", addr, n.kind, kind)
	}
	if n.level > maxLevel {
		return nil, fmt.Errorf("B-tree node at %d: level %d", addr, n.level)
	}

	for i := 0; i < used; i++ {
		n.keys = append(n.keys, nr.Bytes(w.keySize))
		n.children = append(n.children, nr.Offset())
	}
	n.keys = append(n.keys, nr.Bytes(w.keySize))
	if err := nr.Err(); err != nil {
		return nil, fmt.Errorf("B-tree node at %d: %w", addr, err)
	}
	return n, nil
}

// leaves calls fn with the key and child address of every leaf entry.
func (w *walker) leaves(addr uint64, kind uint8, fn func(key []byte, child uint64) error) error {
	n, err := w.read(addr, kind)
	if err != nil {
		return err
	}
	for i, child := range n.children {
		if n.level > 0 {
			err = w.leaves(child, kind, fn)
		} else {
			err = fn(n.keys[i], child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GroupEntries lists the members of a symbol-table group in name order.
func GroupEntries(r *binary.Reader, addr uint64, names *heap.Local) ([]Entry, error) {
	w := &walker{r: r, keySize: r.Sizes.Length, visited: make(map[uint64]bool)}

	var out []Entry
	err := w.leaves(addr, nodeGroup, func(_ []byte, snod uint64) error {
		entries, err := readSymbolNode(r, snod, names)
		out = append(out, entries...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readSymbolNode(r *binary.Reader, addr uint64, names *heap.Local) ([]Entry, error) {
	sr := r.At(addr)
	sr.Expect("SNOD")
	if v := sr.U8(); sr.Err() == nil && v != 1 {
		return nil, fmt.Errorf("symbol node at %d: version %d", addr, v)
	}
	sr.Skip(1)
	count := int(sr.U16())

	entries := make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		nameOff := sr.Length()
		e := Entry{Name: names.String(nameOff), Addr: sr.Offset()}
		cache := sr.U32()
		sr.Skip(4)
		scratch := sr.Bytes(16)
		if sr.Err() != nil {
			break
		}
		if cache == cacheSoftLink {
			e.Soft = names.String(binary.Uint(scratch[:4]))
			e.Addr = binary.Undefined
		}
		entries = append(entries, e)
	}
	if err := sr.Err(); err != nil {
		return nil, fmt.Errorf("symbol node at %d: %w", addr, err)
	}
	return entries, nil
}

// Chunks lists the chunks of a dataset of rank dims indexed by the B-tree
// at addr.
func Chunks(r *binary.Reader, addr uint64, dims int) ([]Chunk, error) {
	w := &walker{r: r, keySize: 8 + 8*(dims+1), visited: make(map[uint64]bool)}

	var out []Chunk
	err := w.leaves(addr, nodeChunk, func(key []byte, child uint64) error {
		kr := binary.NewBytesReader(key, r.Sizes)
		c := Chunk{Size: kr.U32(), Mask: kr.U32(), Addr: child}
		for i := 0; i < dims; i++ {
			c.Offsets = append(c.Offsets, kr.U64())
		}
		out = append(out, c)
		return kr.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
