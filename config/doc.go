// Package config loads the azjwt configuration from a YAML file, a .env
// file and environment variables.
//
// # Usage
//
//	cfg, err := config.Load("azjwt", config.WithConfigFile("config.yml"))
//
// Environment variables override file values. Both VERIFIER_MAX_RETRIES and
// AZJWT_VERIFIER_MAX_RETRIES set verifier.max_retries.
package config
