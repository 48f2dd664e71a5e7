package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gstdash/internal/api"
	"gstdash/internal/backend"
	"gstdash/internal/cli"
	"gstdash/internal/config"
	"gstdash/internal/log"
)

var version = "dev"

// Set by the root command before any subcommand runs.
var (
	cfg    *config.Config
	logger *log.Logger
	source api.Source
)

var rootCmd = &cobra.Command{
	Use:   "gstctl",
	Short: "Inspect and export GST filings from the command line",
	Long: `gstctl reads the same upstream GST service as the dashboard.

Configuration comes from the environment (and a .env file when present):
  DATA_BACKEND       http (default) or memory
  API_BASE_URL       upstream service for the http backend
  DATA_DIR           fixture directory for the memory backend
  LOG_LEVEL, LOG_FORMAT`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, args []string) error {
	cli.LoadEnvFile()
	cfg = config.Load()

	logger = log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: "gstctl",
		Output:    os.Stderr,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	source, err = backend.NewFactory(logger).CreateSource(bcfg)
	if err != nil {
		return fmt.Errorf("create data source: %w", err)
	}
	return nil
}
