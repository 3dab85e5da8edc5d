package config

import (
	"fmt"

	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
	"github.com/MarioArnt/azure-ad-jwt-lite/observability"
	"github.com/MarioArnt/azure-ad-jwt-lite/validation"
	"github.com/MarioArnt/azure-ad-jwt-lite/verifier"
)

// ServiceConfig identifies the running process.
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`
}

// Config is the complete azjwt configuration.
type Config struct {
	Service       ServiceConfig        `yaml:"service" mapstructure:"service"`
	Log           logger.Config        `yaml:"log" mapstructure:"log"`
	Verifier      verifier.Config      `yaml:"verifier" mapstructure:"verifier"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills zero-valued fields in every section.
func (c *Config) ApplyDefaults() {
	if c.Service.Environment == "" {
		c.Service.Environment = "development"
	}
	c.Log.ApplyDefaults()
	c.Verifier.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Service.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Service.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Service.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.Validate(&c.Service); err != nil {
		return fmt.Errorf("config.service: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Verifier.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
