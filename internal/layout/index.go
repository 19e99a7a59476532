package layout

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/robert-malhotra/go-asdf/internal/alloc"
	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
)

// entry is one element of a fixed or extensible array chunk index.
type entry struct {
	addr uint64
	size uint64
	mask uint32
}

func readEntries(r *binary.Reader, n uint64, entrySize int, filtered bool) []entry {
	out := make([]entry, 0, n)
	for i := uint64(0); i < n && r.Err() == nil; i++ {
		e := entry{addr: r.Offset()}
		if filtered {
			e.size = r.Uint(entrySize - r.Sizes.Offset - 4)
			e.mask = r.U32()
		}
		out = append(out, e)
	}
	return out
}

// verify checks the lookup3 checksum that follows the n bytes at addr.
func verify(r *binary.Reader, addr, n uint64, what string) error {
	cr := r.At(addr)
	data := cr.Bytes(int(n))
	stored := cr.U32()
	if err := cr.Err(); err != nil {
		return fmt.Errorf("%s at %d: %w", what, addr, err)
	}
	if sum := binary.Lookup3(data); sum != stored {
		return fmt.Errorf("%s at %d: checksum mismatch", what, addr)
	}
	return nil
}

func readFixedArray(r *binary.Reader, addr uint64, filtered bool) ([]entry, error) {
	hr := r.At(addr)
	hr.Expect("FAHD")
	hr.Skip(2) // version, client
	entrySize := int(hr.U8())
	pageBits := hr.U8()
	n := hr.Length()
	block := hr.Offset()
	if err := hr.Err(); err != nil {
		return nil, fmt.Errorf("fixed array header at %d: %w", addr, err)
	}
	if err := verify(r, addr, hr.Pos()-addr, "fixed array header"); err != nil {
		return nil, err
	}
	if block == binary.Undefined {
		return nil, nil
	}

	br := r.At(block)
	br.Expect("FADB")
	br.Skip(2)
	br.Offset() // header address
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("fixed array data block at %d: %w", block, err)
	}

	pageLen := uint64(1) << pageBits
	if n <= pageLen {
		entries := readEntries(br, n, entrySize, filtered)
		if err := br.Err(); err != nil {
			return nil, fmt.Errorf("fixed array data block at %d: %w", block, err)
		}
		return entries, verify(r, block, br.Pos()-block, "fixed array data block")
	}

	// paged data block: init bitmap, its checksum, then checksummed pages
	pages := (n + pageLen - 1) / pageLen
	bitmap := br.Bytes(int((pages + 7) / 8))
	br.U32()
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("fixed array data block at %d: %w", block, err)
	}

	entries := make([]entry, 0, n)
	pageAddr := br.Pos()
	for p := uint64(0); p < pages; p++ {
		count := min(pageLen, n-p*pageLen)
		if bitmap[p/8]&(0x80>>(p%8)) == 0 {
			for i := uint64(0); i < count; i++ {
				entries = append(entries, entry{addr: binary.Undefined})
			}
		} else {
			pr := r.At(pageAddr)
			entries = append(entries, readEntries(pr, count, entrySize, filtered)...)
			if err := pr.Err(); err != nil {
				return nil, fmt.Errorf("fixed array page %d: %w", p, err)
			}
		}
		pageAddr += count*uint64(entrySize) + 4
	}
	return entries, nil
}

// readExtensibleArray reads the first n entries of an extensible array.
// Entries reachable through super blocks are not supported.
func readExtensibleArray(r *binary.Reader, addr, n uint64, filtered bool) ([]entry, error) {
	hr := r.At(addr)
	hr.Expect("EAHD")
	hr.Skip(2)
	entrySize := int(hr.U8())
	maxBits := hr.U8()
	indexElems := uint64(hr.U8())
	blockMin := uint64(hr.U8())
	superMinPtrs := uint64(hr.U8())
	pageBits := hr.U8()
	for i := 0; i < 6; i++ {
		hr.Length() // statistics
	}
	index := hr.Offset()
	if err := hr.Err(); err != nil {
		return nil, fmt.Errorf("extensible array header at %d: %w", addr, err)
	}
	if index == binary.Undefined {
		return nil, nil
	}

	ir := r.At(index)
	ir.Expect("EAIB")
	ir.Skip(2)
	ir.Offset()
	entries := readEntries(ir, min(n, indexElems), entrySize, filtered)
	ir.Skip(int(indexElems-min(n, indexElems)) * entrySize)

	var blocks []uint64
	if superMinPtrs > 1 {
		for i := uint64(0); i < 2*(superMinPtrs-1); i++ {
			blocks = append(blocks, ir.Offset())
		}
	}
	if err := ir.Err(); err != nil {
		return nil, fmt.Errorf("extensible array index block at %d: %w", index, err)
	}

	offsetLen := int(maxBits+7) / 8
	b := 0
	for super := 0; uint64(len(entries)) < n; super++ {
		count := blockMin << ((super + 1) / 2)
		for d := 0; d < 1<<(super/2) && uint64(len(entries)) < n; d++ {
			if b >= len(blocks) {
				return nil, fmt.Errorf("%w: extensible array super blocks", message.ErrUnsupported)
			}
			if count > 1<<pageBits {
				return nil, fmt.Errorf("%w: paged extensible array data blocks", message.ErrUnsupported)
			}
			want := min(count, n-uint64(len(entries)))
			block := blocks[b]
			b++
			if block == binary.Undefined {
				for i := uint64(0); i < want; i++ {
					entries = append(entries, entry{addr: binary.Undefined})
				}
				continue
			}
			dr := r.At(block)
			dr.Expect("EADB")
			dr.Skip(2)
			dr.Offset()
			dr.Skip(offsetLen)
			entries = append(entries, readEntries(dr, want, entrySize, filtered)...)
			if err := dr.Err(); err != nil {
				return nil, fmt.Errorf("extensible array data block at %d: %w", block, err)
			}
		}
	}
	return entries, nil
}

// sizeWidth returns the byte width of filtered chunk sizes in an array
// index for chunks of raw bytes.
func sizeWidth(raw uint64) int {
	w := 1 + (bits.Len64(raw)-1+8)/8
	return min(w, 8)
}

// writeFixedArray stores a fixed array index over entries and returns its
// header address and page bits.
func writeFixedArray(w io.WriterAt, a *alloc.Allocator, sizes binary.Sizes, entries []entry, filtered bool, raw uint64) (uint64, uint8, error) {
	n := uint64(len(entries))
	pageBits := uint8(max(10, bits.Len64(n-1)))

	entrySize := sizes.Offset
	width := 0
	var client uint8
	if filtered {
		client = 1
		width = sizeWidth(raw)
		entrySize += width + 4
	}

	headerLen := uint64(4 + 1 + 1 + 1 + 1 + sizes.Length + sizes.Offset + 4)
	blockLen := uint64(4+1+1+sizes.Offset) + n*uint64(entrySize) + 4
	header := a.Alloc(headerLen)
	block := a.Alloc(blockLen)

	hb := binary.NewBuilder(sizes)
	hb.Raw([]byte("FAHD"))
	hb.U8(0)
	hb.U8(client)
	hb.U8(uint8(entrySize))
	hb.U8(pageBits)
	hb.Length(n)
	hb.Offset(block)
	hb.Checksum()

	bb := binary.NewBuilder(sizes)
	bb.Raw([]byte("FADB"))
	bb.U8(0)
	bb.U8(client)
	bb.Offset(header)
	for _, e := range entries {
		bb.Offset(e.addr)
		if filtered {
			bb.Uint(e.size, width)
			bb.U32(e.mask)
		}
	}
	bb.Checksum()

	if _, err := w.WriteAt(hb.Bytes(), int64(header)); err != nil {
		return 0, 0, err
	}
	if _, err := w.WriteAt(bb.Bytes(), int64(block)); err != nil {
		return 0, 0, err
	}
	return header, pageBits, nil
}
