// Package hdf5 reads and writes the subset of HDF5 that seismic archives
// use: groups, numeric and string datasets, and attributes.
package hdf5

import (
	"errors"

	"github.com/robert-malhotra/go-asdf/internal/message"
)

// Common errors
var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrUnsupported = message.ErrUnsupported
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")
	ErrReadOnly    = errors.New("file is not writable")
	ErrExists      = errors.New("object already exists")
)

// MaxLinkDepth is the maximum number of soft links followed while
// resolving one path.
const MaxLinkDepth = 100
