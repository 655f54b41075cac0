package dataloader

import (
	"github.com/kbukum/dataflow/util"
	"github.com/kbukum/dataflow/validation"
)

const (
	DefaultLoadBlockSize = 1000
	DefaultBufferSize    = 1000
)

// Config holds the loader tunables.
type Config struct {
	// Name labels logs, metrics and health reports. Defaults to "loader".
	Name string `yaml:"name" mapstructure:"name"`
	// LoadBlockSize is the number of units requested per background load.
	LoadBlockSize int `yaml:"load_block_size" mapstructure:"load_block_size" validate:"gt=0"`
	// BufferSize is the ready-queue depth the loader tries to maintain.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size" validate:"gt=0"`
	// ShuffleBlocks shuffles every loaded block before it is queued.
	// Defaults to true.
	ShuffleBlocks *bool `yaml:"shuffle_blocks" mapstructure:"shuffle_blocks"`
	// Seed fixes the block shuffle order. Zero draws a seed from entropy.
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "loader"
	}
	if c.LoadBlockSize == 0 {
		c.LoadBlockSize = DefaultLoadBlockSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.ShuffleBlocks == nil {
		c.ShuffleBlocks = util.Ptr(true)
	}
}

// Validate checks that both sizes are positive.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

func (c *Config) shuffle() bool {
	return util.DerefOr(c.ShuffleBlocks, true)
}
