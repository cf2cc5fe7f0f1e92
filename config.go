package xform

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config holds per-manager settings. It can be decoded from TOML (LoadConfig)
// or embedded in a YAML document.
type Config struct {
	// AccurateTranslations keeps a double-precision copy of local transforms
	// for nodes created or updated while it is set.
	AccurateTranslations bool `toml:"accurate_translations" yaml:"accurate_translations"`
	// Debug turns programmer errors (cycles, dangling instances, duplicate
	// entities) into panics and enables tree shape warnings.
	Debug bool `toml:"debug" yaml:"debug"`
	// InitialCapacity preallocates the dense node array.
	InitialCapacity int `toml:"initial_capacity" yaml:"initial_capacity"`
	// MaxTreeDepth is the depth above which debug mode logs a warning.
	MaxTreeDepth int `toml:"max_tree_depth" yaml:"max_tree_depth"`
	// MaxChildCount is the child count above which debug mode logs a warning.
	MaxChildCount int `toml:"max_child_count" yaml:"max_child_count"`
}

const (
	defaultCapacity      = 256
	defaultMaxTreeDepth  = 32
	defaultMaxChildCount = 1000
)

// DefaultConfig returns the settings used when no options are given.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: defaultCapacity,
		MaxTreeDepth:    defaultMaxTreeDepth,
		MaxChildCount:   defaultMaxChildCount,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	if c.InitialCapacity < 0 {
		c.InitialCapacity = 0
	}
	if c.MaxTreeDepth <= 0 {
		c.MaxTreeDepth = defaultMaxTreeDepth
	}
	if c.MaxChildCount <= 0 {
		c.MaxChildCount = defaultMaxChildCount
	}
}

// options collects everything an Option can set. The logger is kept apart
// from Config since it cannot be decoded from a file.
type options struct {
	cfg Config
	log *zap.Logger
}

// Option configures a Manager at construction.
type Option func(*options)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithAccurateTranslations sets the initial accurate-translations mode.
func WithAccurateTranslations(enable bool) Option {
	return func(o *options) {
		o.cfg.AccurateTranslations = enable
	}
}

// WithDebug enables debug mode.
func WithDebug(enable bool) Option {
	return func(o *options) {
		o.cfg.Debug = enable
	}
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.cfg.InitialCapacity = n
	}
}
