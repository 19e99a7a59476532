// Package dtype converts between HDF5 element encodings and Go values.
//
// # Reading
//
// [Decode] turns raw elements into a slice of any [Number] type. Integers
// and floats of any width and byte order are accepted and converted, so a
// waveform stored as int32 counts can be read as []float64:
//
//	samples, err := dtype.Decode[float64](dt, raw, n)
//
// [Strings] reads fixed-length strings, honoring null, null-padded and
// space-padded termination, and variable-length strings, which it fetches
// through a [Resolver] over the global heap. [Values] picks the natural Go
// type for a datatype and is used for attributes of unknown shape.
//
// # Writing
//
// [Encode] maps a Go value to a datatype, a shape and its little-endian
// bytes:
//
//	Go value                     | HDF5 datatype
//	-----------------------------|------------------------------
//	float32, float64             | IEEE float, 4 or 8 bytes
//	int8 ... int64, uint8 ...    | fixed point of the same width
//	[]byte                       | unsigned 8-bit integer array
//	string, []string             | fixed-length null-padded string
//
// Slices give one-dimensional arrays and single values give scalars.
// Other types fail with message.ErrUnsupported.
package dtype
