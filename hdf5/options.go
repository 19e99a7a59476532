package hdf5

// DatasetOption configures CreateDataset.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	level     int // deflate level, 0 for none
	shuffle   bool
	fletcher  bool
	chunk     []uint64
	attrNames []string
	attrVals  []any
}

func (c *datasetConfig) filtered() bool {
	return c.level > 0 || c.shuffle || c.fletcher
}

// WithCompression deflates chunks at level 1 to 9.
func WithCompression(level int) DatasetOption {
	return func(c *datasetConfig) {
		c.level = min(max(level, 0), 9)
	}
}

// WithShuffle byte-shuffles chunks before compression.
func WithShuffle() DatasetOption {
	return func(c *datasetConfig) { c.shuffle = true }
}

// WithFletcher32 appends a checksum to every chunk.
func WithFletcher32() DatasetOption {
	return func(c *datasetConfig) { c.fletcher = true }
}

// WithChunks sets the chunk shape. It must have the rank of the data.
func WithChunks(dims ...uint64) DatasetOption {
	return func(c *datasetConfig) { c.chunk = dims }
}

// WithAttribute attaches an attribute to the new dataset.
func WithAttribute(name string, value any) DatasetOption {
	return func(c *datasetConfig) {
		c.attrNames = append(c.attrNames, name)
		c.attrVals = append(c.attrVals, value)
	}
}
