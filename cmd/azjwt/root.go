package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MarioArnt/azure-ad-jwt-lite/config"
	"github.com/MarioArnt/azure-ad-jwt-lite/logger"
	"github.com/MarioArnt/azure-ad-jwt-lite/observability"
)

const serviceName = "azjwt"

// app carries state shared by the subcommands once PersistentPreRunE ran.
type app struct {
	out, errOut io.Writer

	configFile string
	envFile    string
	logLevel   string

	discoveryURL string
	maxRetries   int
	noCache      bool
	issuer       string
	audience     string

	cfg      *config.Config
	log      *logger.Logger
	metrics  *observability.Metrics
	shutdown func(context.Context) error
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Verify Azure AD tokens against published signing keys",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdown == nil {
				return nil
			}
			return a.shutdown(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: search ./config.yml, ./cmd/azjwt/config.yml)")
	flags.StringVar(&a.envFile, "env-file", "", ".env file to load")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.discoveryURL, "discovery-url", "", "key discovery endpoint")
	flags.IntVar(&a.maxRetries, "max-retries", 0, "extra discovery attempts on 5xx or network failure")
	flags.BoolVar(&a.noCache, "no-cache", false, "bypass the key cache")
	flags.StringVar(&a.issuer, "issuer", "", "required iss claim")
	flags.StringVar(&a.audience, "audience", "", "required aud claim")

	root.AddCommand(
		newVerifyCmd(a),
		newKeysCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and initializes logging,
// tracing and metrics.
func (a *app) setup(cmd *cobra.Command) error {
	var opts []config.LoaderOption
	if a.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.configFile))
	}
	if a.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.envFile))
	}
	cfg, err := config.Load(serviceName, opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("discovery-url") {
		cfg.Verifier.DiscoveryURL = a.discoveryURL
	}
	if flags.Changed("max-retries") {
		cfg.Verifier.MaxRetries = a.maxRetries
	}
	if flags.Changed("no-cache") {
		cfg.Verifier.DisableCache = a.noCache
	}
	if flags.Changed("issuer") {
		cfg.Verifier.Issuer = a.issuer
	}
	if flags.Changed("audience") {
		cfg.Verifier.Audience = a.audience
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.NewWithWriter(&cfg.Log, cfg.Service.Name, a.errOut)
	logger.SetGlobalLogger(a.log)

	a.shutdown, err = observability.Init(cmd.Context(), cfg.Observability)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	a.metrics, err = observability.NewMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	return nil
}
