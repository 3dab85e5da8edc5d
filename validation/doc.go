// Package validation validates configuration structs with go-playground
// validator tags and reports every failing field at once.
//
//	type Config struct {
//	    DiscoveryURL string `mapstructure:"discovery_url" validate:"omitempty,url"`
//	    MaxRetries   int    `mapstructure:"max_retries" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
package validation
