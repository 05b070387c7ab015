// Package validation checks configuration structs and command-line input.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their mapstructure (or yaml, or json) name, so messages match the keys a
// user wrote in config.yml:
//
//	type Config struct {
//	    BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
//	    Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects errors for values that have no struct:
//
//	v := validation.New()
//	v.Required("url", rawURL).HTTPURL("url", rawURL)
//	err := v.Error()
package validation
