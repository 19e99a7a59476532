// Package message decodes and encodes the object header messages of the
// HDF5 format.
//
// # Messages
//
// An object header is a list of typed messages. A message is kept as a
// [Raw] until it is needed; each kind the engine understands has a DecodeX
// function working on the raw body and an Encode method producing it:
//
//   - [Dataspace]: scalar, simple or null shapes. See [Simple] and [Scalar].
//   - [Datatype]: fixed point, float, string and variable-length classes
//     are decoded; other classes keep their properties whole so the
//     element size is still known.
//   - [FillValue]: written with "never" fill so unwritten chunks cost
//     nothing.
//   - [Link] and [LinkInfo]: hard and soft links of compact groups.
//     External links decode but cannot be followed.
//   - [Layout] and [Pipeline]: where the data is and which filters it went
//     through.
//   - [Attribute] and [AttributeInfo].
//   - [SymbolTable] and [Continuation]: the old group format and header
//     overflow blocks.
//
// Messages the engine does not know are carried as Raw and written back
// unchanged, so rewriting a header keeps them.
//
// # Encoding
//
// Every writable message implements [Encoder]. Field widths come from the
// file's [binary.Sizes]. A [Datatype] is always written with
// [FlagConstant] set.
//
// Valid constructs the engine does not handle fail with [ErrUnsupported].
package message
