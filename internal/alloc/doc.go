// Package alloc hands out file space for new HDF5 structures.
//
// An [Allocator] starts at the end of an existing file, or right after the
// superblock of a new one, and appends: every block is placed at the
// current end of file, aligned to 8 bytes, and the end moves past it.
// Headers that are rewritten elsewhere give their old block back through
// [Allocator.Release]; the bytes are only counted in [Stats], never reused.
// Rewriting the container into a fresh file is the way to reclaim them.
//
// An Allocator is safe for concurrent use.
package alloc
