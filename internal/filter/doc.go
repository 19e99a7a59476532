// Package filter applies and reverses HDF5 filter pipelines on chunk data.
//
// # Supported Filters
//
//   - Deflate (ID 1): zlib streams, via github.com/klauspost/compress/zlib.
//   - Shuffle (ID 2): groups byte k of every element together so deflate
//     sees runs of similar bytes.
//   - Fletcher32 (ID 3): a trailing checksum, verified on read. Checksums
//     written byte-reversed by old library versions are accepted too.
//
// Any other filter fails with message.ErrUnsupported, optional or not.
//
// [Decode] undoes a pipeline in reverse order and skips the filters whose
// bit is set in a chunk's filter mask. [Encode] applies it forward.
// [Pipeline] builds the shuffle, deflate and fletcher32 combination used
// for new datasets.
package filter
