// Package validation validates configuration and descriptor values.
//
// It supports struct tag validation (go-playground/validator) and
// programmatic checks that collect field errors.
//
// # Struct Tag Validation
//
//	type StubConfig struct {
//	    Mode  string        `mapstructure:"mode" validate:"omitempty,oneof=never immediate delayed mock_server"`
//	    Delay time.Duration `mapstructure:"delay" validate:"gte=0"`
//	}
//	err := validation.Struct(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("path", route.Path)
//	err := v.Err()
package validation
