// Package asdf reads and writes Adaptable Seismic Data Format containers:
// waveforms, StationXML, QuakeML and SEIS-PROV documents laid out in an
// HDF5 file.
package asdf

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/hdf5"
)

// Error is the error class for container level failures.
var Error = errs.Class("asdf")

var (
	// ErrInvalidTag is returned for waveform tags and provenance names that
	// are not lower case alphanumerics and underscores.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrNotASDF is returned when an HDF5 file declares a different format
	// or, when opened read-only, declares none.
	ErrNotASDF = errors.New("not an ASDF file")
)

// Layout names.
const (
	FormatName    = "ASDF"
	FormatVersion = "1.0.3"

	auxiliaryGroup  = "AuxiliaryData"
	provenanceGroup = "Provenance"
	waveformsGroup  = "Waveforms"
	quakemlDataset  = "QuakeML"
	stationXMLName  = "StationXML"

	attrFormat  = "file_format"
	attrVersion = "file_format_version"
)

var tagPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// DataSet is an open ASDF container.
type DataSet struct {
	file *hdf5.File
	log  *zap.Logger

	compression int
	shuffle     bool
}

type options struct {
	compression int
	shuffle     bool
	log         *zap.Logger
}

// Option configures a DataSet.
type Option func(*options)

// WithCompression stores datasets with gzip at the given level (1-9).
// Level 0 stores them uncompressed.
func WithCompression(level int) Option {
	return func(o *options) {
		o.compression = level
	}
}

// WithShuffle enables the byte shuffle filter ahead of compression.
func WithShuffle() Option {
	return func(o *options) {
		o.shuffle = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func newDataSet(f *hdf5.File, opts []Option) (*DataSet, error) {
	o := &options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.compression < 0 || o.compression > 9 {
		return nil, Error.New("compression level %d out of range", o.compression)
	}
	return &DataSet{
		file:        f,
		log:         o.log,
		compression: o.compression,
		shuffle:     o.shuffle,
	}, nil
}

// Create creates a new, empty container at path, truncating any existing
// file.
func Create(path string, opts ...Option) (*DataSet, error) {
	ds, err := newDataSet(nil, opts)
	if err != nil {
		return nil, err
	}

	f, err := hdf5.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	ds.file = f

	if err := ds.initLayout(); err != nil {
		_ = f.Close()
		return nil, err
	}

	ds.log.Debug("container created", zap.String("path", path))
	return ds, nil
}

// Open opens an existing container read-only.
func Open(path string, opts ...Option) (*DataSet, error) {
	ds, err := newDataSet(nil, opts)
	if err != nil {
		return nil, err
	}

	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	ds.file = f

	format, ok := ds.rootString(attrFormat)
	if !ok || format != FormatName {
		_ = f.Close()
		return nil, Error.Wrap(fmt.Errorf("%w: %s", ErrNotASDF, path))
	}

	ds.log.Debug("container opened", zap.String("path", path), zap.Bool("writable", false))
	return ds, nil
}

// OpenReadWrite opens an existing HDF5 file for appending. Files without a
// format declaration are initialized as ASDF. Only files with a version 2
// or 3 superblock can be appended to; older files fail with
// hdf5.ErrUnsupported.
func OpenReadWrite(path string, opts ...Option) (*DataSet, error) {
	ds, err := newDataSet(nil, opts)
	if err != nil {
		return nil, err
	}

	f, err := hdf5.OpenReadWrite(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	ds.file = f

	if format, ok := ds.rootString(attrFormat); ok && format != FormatName {
		_ = f.Close()
		return nil, Error.Wrap(fmt.Errorf("%w: %s declares %q", ErrNotASDF, path, format))
	}
	if err := ds.initLayout(); err != nil {
		_ = f.Close()
		return nil, err
	}

	ds.log.Debug("container opened", zap.String("path", path), zap.Bool("writable", true))
	return ds, nil
}

// initLayout adds whatever part of the fixed ASDF layout is missing.
func (ds *DataSet) initLayout() error {
	root := ds.file.Root()

	if _, ok := ds.rootString(attrFormat); !ok {
		if err := root.SetAttr(attrFormat, FormatName); err != nil {
			return Error.Wrap(err)
		}
		if err := root.SetAttr(attrVersion, FormatVersion); err != nil {
			return Error.Wrap(err)
		}
	}

	for _, name := range []string{auxiliaryGroup, provenanceGroup, waveformsGroup} {
		if _, err := root.RequireGroup(name); err != nil {
			return Error.Wrap(fmt.Errorf("group %s: %w", name, err))
		}
	}

	if !root.Has(quakemlDataset) {
		if err := ds.writeCatalog(&event.Catalog{}); err != nil {
			return err
		}
	}
	return nil
}

func (ds *DataSet) rootString(name string) (string, bool) {
	attr := ds.file.Root().Attr(name)
	if attr == nil {
		return "", false
	}
	s, err := attr.ReadScalarString()
	if err != nil {
		return "", false
	}
	return s, true
}

// Path returns the file path of the container.
func (ds *DataSet) Path() string {
	return ds.file.Path()
}

// FileFormatVersion returns the ASDF version declared by the file.
func (ds *DataSet) FileFormatVersion() string {
	v, _ := ds.rootString(attrVersion)
	return v
}

// Writable reports whether the container accepts writes.
func (ds *DataSet) Writable() bool {
	return ds.file.IsWritable()
}

// Close flushes pending writes and releases the file.
func (ds *DataSet) Close() error {
	if ds.file.IsWritable() {
		s := ds.file.SpaceStats()
		ds.log.Debug("container closed",
			zap.String("path", ds.file.Path()),
			zap.Uint64("allocated", s.Allocated),
			zap.Uint64("released", s.Released))
	}
	if err := ds.file.Close(); err != nil {
		return Error.Wrap(err)
	}
	return nil
}

// datasetOptions returns the storage options for new datasets.
func (ds *DataSet) datasetOptions(extra ...hdf5.DatasetOption) []hdf5.DatasetOption {
	var opts []hdf5.DatasetOption
	if ds.shuffle {
		opts = append(opts, hdf5.WithShuffle())
	}
	if ds.compression > 0 {
		opts = append(opts, hdf5.WithCompression(ds.compression))
	}
	return append(opts, extra...)
}

// replaceBytes stores data as a uint8 dataset, replacing any existing
// member of the same name.
func (ds *DataSet) replaceBytes(g *hdf5.Group, name string, data []byte) error {
	if g.Has(name) {
		if err := g.Unlink(name); err != nil {
			return err
		}
	}
	_, err := g.CreateDataset(name, data, ds.datasetOptions()...)
	return err
}

func readBytes(g *hdf5.Group, name string) ([]byte, error) {
	d, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	return d.ReadUint8()
}

// ValidateTag normalizes tag to NFKC and checks that it is a valid waveform
// tag or provenance name.
func ValidateTag(tag string) (string, error) {
	tag = norm.NFKC.String(tag)
	if !tagPattern.MatchString(tag) {
		return "", Error.Wrap(fmt.Errorf("%w: %q", ErrInvalidTag, tag))
	}
	return tag, nil
}
