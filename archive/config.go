package archive

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-asdf/asdf"
	"github.com/robert-malhotra/go-asdf/stream"
)

// Version is the release of this module recorded in provenance documents.
const Version = "0.1.0"

// Software identifies this module in provenance documents.
var Software = stream.Software{
	Name:    "go-asdf",
	Version: Version,
	Website: "https://github.com/robert-malhotra/go-asdf",
}

// Config controls how streams are written.
type Config struct {
	// Compression is the gzip level of stored datasets, 0 for none.
	Compression int  `yaml:"compression"`
	Shuffle     bool `yaml:"shuffle"`
	// Strict validates stream homogeneity before writing.
	Strict bool `yaml:"strict"`
	// Revision is the numeric suffix of processed tags.
	Revision int             `yaml:"revision"`
	Software stream.Software `yaml:"software"`
}

// DefaultConfig returns gzip level 3, no shuffle, lenient classification
// and revision 1.
func DefaultConfig() Config {
	return Config{
		Compression: 3,
		Revision:    1,
		Software:    Software,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Compression < 0 || c.Compression > 9 {
		return Error.New("compression level %d out of range 0-9", c.Compression)
	}
	if c.Revision < 1 {
		return Error.New("revision %d must be positive", c.Revision)
	}
	return nil
}

// LoadConfig reads a YAML configuration file. Fields absent from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, Error.Wrap(err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, Error.New("parse %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) datasetOptions(log *zap.Logger) []asdf.Option {
	opts := []asdf.Option{asdf.WithCompression(c.Compression), asdf.WithLogger(log)}
	if c.Shuffle {
		opts = append(opts, asdf.WithShuffle())
	}
	return opts
}

type options struct {
	config Config
	log    *zap.Logger
}

// Option configures Read and Write.
type Option func(*options)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
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

func newOptions(opts []Option) (*options, error) {
	o := &options{config: DefaultConfig(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
