package main

import (
	"fmt"

	"github.com/kbukum/dataflow/config"
	"github.com/kbukum/dataflow/dataloader"
	"github.com/kbukum/dataflow/resilience"
	"github.com/kbukum/dataflow/validation"
)

const serviceName = "dataflow"

// Config is the full configuration of the dataflow command.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Loader   dataloader.Config `yaml:"loader" mapstructure:"loader"`
	Pipeline PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
}

// PipelineConfig describes the corpus pipeline the command builds.
type PipelineConfig struct {
	Corpus    []string `yaml:"corpus" mapstructure:"corpus" validate:"required,min=1"`
	Delimiter string   `yaml:"delimiter" mapstructure:"delimiter"`
	Tokenizer string   `yaml:"tokenizer" mapstructure:"tokenizer" validate:"oneof=whitespace alphabet"`
	Vocab     string   `yaml:"vocab" mapstructure:"vocab"`
	BatchSize int      `yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
	MaxLen    int      `yaml:"max_len" mapstructure:"max_len" validate:"gte=0"`
	Pad       bool     `yaml:"pad" mapstructure:"pad"`
	Epochs    int      `yaml:"epochs" mapstructure:"epochs" validate:"gt=0"`

	// Retry governs re-reading corpus files after transient IO errors.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Loader.ApplyDefaults()

	if c.Pipeline.Tokenizer == "" {
		c.Pipeline.Tokenizer = "whitespace"
	}
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = 32
	}
	if c.Pipeline.Epochs == 0 {
		c.Pipeline.Epochs = 1
	}
	c.Pipeline.Retry.ApplyDefaults()
}

// Validate checks the service, loader and pipeline sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Loader.Validate(); err != nil {
		return fmt.Errorf("config.loader: %w", err)
	}
	if err := validation.Validate(&c.Pipeline); err != nil {
		return fmt.Errorf("config.pipeline: %w", err)
	}
	return nil
}
