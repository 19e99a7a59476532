package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/go-asdf/internal/dtype"
	"github.com/robert-malhotra/go-asdf/internal/filter"
	"github.com/robert-malhotra/go-asdf/internal/layout"
	"github.com/robert-malhotra/go-asdf/internal/message"
	"github.com/robert-malhotra/go-asdf/internal/object"
)

// CreateDataset writes data as a new dataset named name in g. Data is a
// numeric or string scalar, or a slice of one.
func (g *Group) CreateDataset(name string, data any, opts ...DatasetOption) (*Dataset, error) {
	if err := g.canLink(name); err != nil {
		return nil, err
	}
	var cfg datasetConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f := g.file
	sizes := f.sb.Sizes
	p := path.Join(g.path, name)

	dt, dims, raw, err := dtype.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	space := message.Scalar()
	if dims != nil {
		space = message.Simple(dims...)
	}

	var pipeline *message.Pipeline
	if dims != nil && cfg.filtered() {
		pipeline = filter.Pipeline(cfg.shuffle, cfg.level, cfg.fletcher, int(dt.Size))
	}
	s := layout.Space{Dims: dims, ElemSize: int(dt.Size)}
	lm, err := layout.Write(f.file, f.alloc, sizes, raw, s, layout.Options{Chunk: cfg.chunk, Pipeline: pipeline})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}

	msgs := []message.Encoder{
		space,
		dt,
		&message.FillValue{Chunked: lm.Class == message.StorageChunked},
		lm,
	}
	if pipeline != nil && lm.Class == message.StorageChunked {
		msgs = append(msgs, pipeline)
	}
	for i, an := range cfg.attrNames {
		m, err := encodeAttribute(an, cfg.attrVals[i], sizes)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", p, err)
		}
		msgs = append(msgs, m)
	}

	body, err := object.EncodeMessages(msgs, sizes)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	hdrSpace := uint64(len(body))
	addr := f.alloc.Alloc(object.Size(hdrSpace))
	if err := f.writeHeader(addr, body, hdrSpace); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}

	if err := g.addLink(&message.Link{Name: name, Addr: addr}); err != nil {
		return nil, err
	}
	return g.OpenDataset(name)
}
