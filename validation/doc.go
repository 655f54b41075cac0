// Package validation checks configuration structs and tunables.
//
// Struct tag validation uses the validator library and reports fields by
// their mapstructure key, so messages name the same keys users write in
// config files:
//
//	type Config struct {
//	    BufferSize int `mapstructure:"buffer_size" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects several failures into one error:
//
//	v := validation.New()
//	v.Min("batch_size", cfg.BatchSize, 1)
//	err := v.Validate()
package validation
