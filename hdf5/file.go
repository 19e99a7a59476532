package hdf5

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/robert-malhotra/go-asdf/internal/alloc"
	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/heap"
	"github.com/robert-malhotra/go-asdf/internal/message"
	"github.com/robert-malhotra/go-asdf/internal/object"
	"github.com/robert-malhotra/go-asdf/internal/superblock"
)

// File is an open HDF5 file. It is not safe for concurrent use.
type File struct {
	path   string
	file   *os.File
	r      *binary.Reader
	sb     *superblock.Superblock
	heaps  *heap.Cache
	groups map[string]*Group // open groups by path
	closed bool

	writable bool
	alloc    *alloc.Allocator
}

// SpaceStats summarizes the file space handed out since the file was
// opened for writing.
type SpaceStats struct {
	Blocks    int
	Allocated uint64

	// Released counts bytes of superseded headers. They stay in the file
	// until it is rewritten.
	Released uint64
}

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	return open(path, false)
}

// OpenReadWrite opens an existing file for reading and appending. Only
// files with a version 2 or 3 superblock and no base address offset are
// accepted.
func OpenReadWrite(path string) (*File, error) {
	return open(path, true)
}

func open(path string, writable bool) (*File, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	osf, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	sb, err := superblock.Find(osf)
	if err != nil {
		osf.Close()
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNotHDF5, err)
	}

	// Addresses are relative to the base address.
	var src io.ReaderAt = osf
	if sb.Base != 0 {
		src = io.NewSectionReader(osf, int64(sb.Base), math.MaxInt64-int64(sb.Base))
	}

	f := &File{
		path:   path,
		file:   osf,
		r:      binary.NewReader(src, sb.Sizes),
		sb:     sb,
		groups: make(map[string]*Group),
	}
	f.heaps = heap.NewCache(f.r)

	if writable {
		if sb.Version < 2 || sb.Base != 0 {
			osf.Close()
			return nil, fmt.Errorf("%w: writing to files with superblock version %d", ErrUnsupported, sb.Version)
		}
		info, err := osf.Stat()
		if err != nil {
			osf.Close()
			return nil, fmt.Errorf("opening file: %w", err)
		}
		f.writable = true
		f.alloc = alloc.New(max(sb.EOF, uint64(info.Size())))
	}

	root, err := f.loadObject("/", sb.Root)
	if err == nil {
		if _, ok := root.(*Group); !ok {
			err = ErrNotGroup
		}
	}
	if err != nil {
		osf.Close()
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	return f, nil
}

// Create creates a new, empty file, truncating any existing one.
func Create(path string) (*File, error) {
	osf, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	sb := superblock.New()
	f := &File{
		path:     path,
		file:     osf,
		r:        binary.NewReader(osf, sb.Sizes),
		sb:       sb,
		groups:   make(map[string]*Group),
		writable: true,
		alloc:    alloc.New(uint64(sb.Size())),
	}
	f.heaps = heap.NewCache(f.r)

	root := &Group{file: f, path: "/", msgs: newGroupMessages(sb.Sizes)}
	if err := root.store(); err != nil {
		osf.Close()
		return nil, fmt.Errorf("creating root group: %w", err)
	}
	f.groups["/"] = root
	sb.Root = root.addr

	if err := f.Flush(); err != nil {
		osf.Close()
		return nil, err
	}
	return f, nil
}

// IsHDF5 reports whether path holds an HDF5 superblock.
func IsHDF5(path string) bool {
	osf, err := os.Open(path)
	if err != nil {
		return false
	}
	defer osf.Close()
	_, err = superblock.Find(osf)
	return err == nil
}

// Flush writes the superblock so the file on disk is consistent.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return nil
	}

	eof := f.alloc.EOF()
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if uint64(info.Size()) < eof {
		if err := f.file.Truncate(int64(eof)); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}

	f.sb.EOF = eof
	if _, err := f.file.WriteAt(f.sb.Encode(), f.sb.At); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}

// Close flushes pending metadata and closes the file.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	var err error
	if f.writable {
		err = f.Flush()
	}
	f.closed = true
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Root returns the root group.
func (f *File) Root() *Group {
	return f.groups["/"]
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Version returns the superblock version.
func (f *File) Version() int { return f.sb.Version }

// IsWritable reports whether the file accepts writes.
func (f *File) IsWritable() bool { return f.writable && !f.closed }

// SpaceStats returns allocation counters. They are zero for read-only
// files.
func (f *File) SpaceStats() SpaceStats {
	if f.alloc == nil {
		return SpaceStats{}
	}
	s := f.alloc.Stats()
	return SpaceStats{Blocks: s.Blocks, Allocated: s.Allocated, Released: s.Released}
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}

// loadObject returns the group or dataset whose header is at addr.
// Groups are cached by path.
func (f *File) loadObject(p string, addr uint64) (any, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if g, ok := f.groups[p]; ok && g.addr == addr {
		return g, nil
	}

	h, err := object.Read(f.r, addr)
	if err != nil {
		return nil, err
	}
	if _, ok := h.Find(message.TypeLayout); ok {
		return newDataset(f, p, h)
	}

	g, err := newGroup(f, p, h)
	if err != nil {
		return nil, err
	}
	f.groups[p] = g
	return g, nil
}

// writeHeader frames body into a header of the given space at addr.
func (f *File) writeHeader(addr uint64, body []byte, space uint64) error {
	hdr, err := object.Frame(body, space)
	if err != nil {
		return err
	}
	if _, err := f.file.WriteAt(hdr, int64(addr)); err != nil {
		return fmt.Errorf("writing object header: %w", err)
	}
	return nil
}

// forget drops cached groups at p and below.
func (f *File) forget(p string) {
	for k := range f.groups {
		if k == p || (len(k) > len(p) && k[:len(p)] == p && k[len(p)] == '/') {
			delete(f.groups, k)
		}
	}
}
