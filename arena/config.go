package arena

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	DefaultNurserySize   = 1024
	DefaultMajorInterval = 8
)

// Config holds the parameters of a Heap. The zero value is usable.
type Config struct {
	// NurserySize is the number of allocations between
	// minor collections.
	NurserySize int `mapstructure:"nursery_size"`

	// MaxObjects bounds the number of live objects. When an
	// allocation would exceed it even after a full collection,
	// the allocation fails with ErrOutOfMemory. Zero means no limit.
	MaxObjects int `mapstructure:"max_objects"`

	// MajorInterval is the number of minor collections
	// between full collections.
	MajorInterval int `mapstructure:"major_interval"`

	// Stress makes every allocation run a collection first and
	// stops released handles from being reused, so that a handle
	// kept past the death of its object is reported rather than
	// silently aliased.
	Stress bool `mapstructure:"stress"`

	// Logger receives collection events. Nil means no logging.
	Logger *zerolog.Logger `mapstructure:"-"`

	// Registerer, if set, has the heap's metrics registered with it.
	Registerer prometheus.Registerer `mapstructure:"-"`
}

func (c Config) withDefaults() Config {
	if c.NurserySize <= 0 {
		c.NurserySize = DefaultNurserySize
	}
	if c.MajorInterval <= 0 {
		c.MajorInterval = DefaultMajorInterval
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
