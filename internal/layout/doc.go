// Package layout reads and writes the raw data of datasets.
//
// # Storage Classes
//
// A layout message places the data of a dataset in one of three ways:
//
//   - Compact: the bytes live in the layout message itself.
//   - Contiguous: one block in the file. An undefined address means the
//     dataset was never written and reads as zeros.
//   - Chunked: the array is cut into equal chunks, each stored and
//     filtered on its own and found through an index.
//
// [Read] handles all three and returns the array as one buffer in
// row-major order. The caller describes the array with a [Space].
//
// # Chunk Indexes
//
// Chunked layouts of version 3 use a version 1 B-tree, see package btree.
// Version 4 layouts name their index:
//
//   - single chunk: the layout holds the address of the only chunk;
//   - implicit: chunks sit back to back in one block;
//   - fixed array ("FAHD"), paged or not;
//   - extensible array ("EAHD"), with index and secondary blocks.
//
// Version 2 B-tree indexes fail with message.ErrUnsupported. Chunks that
// hang over the edge of the array are clipped when they are scattered
// into the output, so any chunk shape reads back correctly.
//
// # Writing
//
// [Write] stores an array and returns the layout message to put in the
// dataset header. Unfiltered arrays without a chunk shape are written
// contiguous. With a pipeline or an explicit chunk shape the array is
// chunked: one chunk gets the single chunk index and several chunks a
// fixed array. [DefaultChunk] picks a shape of about 64 KiB.
//
// [Describe] renders a layout for display, for example
// "chunked(fixed-array)".
package layout
