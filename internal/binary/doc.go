// Package binary decodes and encodes the little-endian primitives that HDF5
// file structures are built from.
//
// A [Reader] reads from an io.ReaderAt at a cursor. Its error is sticky:
// after the first short read every later call returns zero values and
// [Reader.Err] reports the failure, so decoders read a whole structure and
// check once. Offsets and lengths use the widths recorded in the
// superblock, see [Sizes]; an all-ones offset is [Undefined].
//
// A [Builder] appends the same primitives to a buffer and can seal it
// with a [Lookup3] checksum. [Fletcher32] is the checksum of the filter of
// the same name.
package binary
