// Package object reads object headers and frames new ones.
//
// # Reading
//
// [Read] detects the header version at an address:
//
//   - Version 1 headers, used by files with a version 0 or 1 superblock,
//     start with the version byte and keep messages 8-byte aligned.
//   - Version 2 headers start with "OHDR", may carry timestamps and end
//     every chunk with a lookup3 checksum, which is verified.
//
// Continuation messages are followed into further blocks ("OCHK" for
// version 2) until the whole message list is in one [Header]. Use
// [Header.Find] and [Header.All] to pick messages by type.
//
// # Writing
//
// New headers are always version 2 with a single chunk.
// [EncodeMessages] lays out the message records and [Frame] wraps them in
// the prefix and checksum, padding the unused space with a nil message so
// the header can grow in place later. [Size] gives the on-disk size of a
// header for a message space, which callers need before they allocate.
package object
