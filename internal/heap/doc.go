// Package heap reads the two HDF5 heaps.
//
// A [Local] heap ("HEAP") stores the null-terminated member names of a
// symbol-table group. A global heap [Collection] ("GCOL") stores numbered
// objects, such as the bytes of variable-length strings, addressed by
// collection address and index. [Cache] keeps the collections it has read
// so the strings of one dataset only load each collection once.
package heap
