// Package superblock locates, decodes and encodes the HDF5 superblock.
//
// # Locating
//
// The superblock starts with the eight-byte [Signature] at offset 0 or at
// 512, 1024, 2048 and so on when the file carries a user block. [Find]
// probes those offsets and returns [ErrNoSignature] when none matches.
//
// # Versions
//
// All four versions are read:
//
//   - Versions 0 and 1 point at the root group through a symbol table
//     entry. These are what h5py and most HDF5 1.8 writers produce.
//   - Versions 2 and 3 point at the root object header directly and end
//     with a lookup3 checksum, which is verified.
//
// Offset and length widths of 2, 4 or 8 bytes are accepted, and the base
// address is kept so a reader can shift every address.
//
// # Writing
//
// [New] returns a version 3 superblock with 8-byte widths and
// [Superblock.Encode] serializes it. Only files with a version 2 or 3
// superblock are ever written to.
package superblock
