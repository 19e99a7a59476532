// Package archive reads and writes lists of seismic streams to ASDF
// containers, attaching station metadata, events and processing provenance.
package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/errs"

	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/stream"
)

// Error is the error class for archive level failures.
var Error = errs.Class("archive")

// ErrMissingChannel is returned by Read when a trace's channel has no
// StationXML record.
var ErrMissingChannel = errors.New("missing channel metadata")

// RawTag is the tag of unprocessed recordings.
const RawTag = "raw_recording"

const auxiliaryGroup = "AuxiliaryData"

// IsASDF reports whether path is an HDF5 file with an ASDF auxiliary data
// group. It never fails: unreadable or malformed files report false.
func IsASDF(path string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	f, err := hdf5.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return f.Root().Has(auxiliaryGroup)
}

// Tag returns the waveform tag for st: RawTag for raw streams and
// <station>_<revision> for processed ones.
func Tag(st *stream.Stream, revision int) string {
	if !st.IsProcessed() {
		return RawTag
	}
	if revision < 1 {
		revision = 1
	}
	return fmt.Sprintf("%s_%d", strings.ToLower(st.Station()), revision)
}
