// Package btree walks version 1 B-trees.
//
// Two node types are read:
//
//   - Type 0 nodes index the members of symbol-table groups, written by
//     files with a version 0 or 1 superblock. Leaves point to symbol table
//     nodes ("SNOD") whose entries name members through a [heap.Local].
//     [GroupEntries] returns them as [Entry] values in key order.
//   - Type 1 nodes index the chunks of chunked datasets in the same files.
//     [Chunks] returns one [Chunk] per stored chunk with its offset, size
//     and filter mask.
//
// Nodes already visited are rejected so a corrupt file cannot loop.
package btree
