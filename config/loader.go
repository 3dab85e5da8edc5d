package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/MarioArnt/azure-ad-jwt-lite/discovery"
	"github.com/MarioArnt/azure-ad-jwt-lite/keycache"
	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
)

// EnvPrefix is an optional prefix stripped from environment variable names.
const EnvPrefix = "AZJWT_"

// FileSystem abstracts file lookups so resolution can be tested.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem uses the process file system.
type RealFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds the config and .env files of a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the config and env file paths, empty when absent.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths from opts, otherwise the first
// existing candidate.
func (r *Resolver) ResolveFiles(service string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(service))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(service))
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func configCandidates(service string) []string {
	return []string{
		"./config.yml",
		"./config.yaml",
		fmt.Sprintf("./cmd/%s/config.yml", service),
		fmt.Sprintf("../../cmd/%s/config.yml", service),
		fmt.Sprintf("/etc/%s/config.yml", service),
	}
}

func envCandidates(service string) []string {
	return []string{
		fmt.Sprintf("./.env.%s", service),
		"./.env",
		fmt.Sprintf("./cmd/%s/.env", service),
	}
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads the configuration for service, applies defaults and validates
// it. Sources are layered as defaults, then the YAML file, then environment
// variables (including those loaded from the .env file).
func Load(service string, opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(service, lc)

	cfg := &Config{}
	if err := loadFromResolvedFiles(service, cfg, files, lc.FileSystem); err != nil {
		return nil, err
	}
	if cfg.Service.Name == "" {
		cfg.Service.Name = service
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every known key so environment variables can
// override keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.version", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", true)
	v.SetDefault("log.caller", false)

	v.SetDefault("verifier.discovery_url", discovery.DefaultURL)
	v.SetDefault("verifier.max_retries", discovery.DefaultMaxRetries)
	v.SetDefault("verifier.disable_cache", false)
	v.SetDefault("verifier.cache_ttl", keycache.DefaultTTL)
	v.SetDefault("verifier.retry_backoff", time.Duration(0))
	v.SetDefault("verifier.http_timeout", discovery.DefaultTimeout)
	v.SetDefault("verifier.coalesce", false)
	v.SetDefault("verifier.issuer", "")
	v.SetDefault("verifier.audience", "")
	v.SetDefault("verifier.subject", "")
	v.SetDefault("verifier.leeway", time.Duration(0))
	v.SetDefault("verifier.algorithms", []string{})
	v.SetDefault("verifier.tls.ca_file", "")
	v.SetDefault("verifier.tls.server_name", "")
	v.SetDefault("verifier.tls.skip_verify", false)
	v.SetDefault("verifier.tls.min_version", "")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.endpoint", "")
	v.SetDefault("observability.insecure", false)
	v.SetDefault("observability.sample_rate", 1.0)
	v.SetDefault("observability.interval", time.Duration(0))
}

func loadFromResolvedFiles(service string, cfg *Config, files ResolvedFiles, fs FileSystem) error {
	log := logger.Get("config")
	v := viper.New()
	setDefaults(v)

	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
		log.Debug("loaded config file", logger.Fields("path", files.ConfigFile))
	}

	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", logger.Fields("path", files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	bindEnvVars(v)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", service, err)
	}
	return nil
}

// bindEnvVars overrides every registered key from the environment.
// verifier.cache_ttl is read from AZJWT_VERIFIER_CACHE_TTL, then from
// VERIFIER_CACHE_TTL.
func bindEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		for _, name := range envNames(key) {
			if value, ok := os.LookupEnv(name); ok {
				v.Set(key, value)
				break
			}
		}
	}
}

// envNames lists the environment variable names for a config key, in
// priority order.
func envNames(key string) []string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return []string{EnvPrefix + name, name}
}
