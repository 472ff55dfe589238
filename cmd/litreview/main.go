// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litreview CLI. Each pipeline
// stage is reachable through a subcommand: search starts a project and
// runs retrieval, step runs an individual stage, collect builds the
// prompts, report renders the HTML pages, and serve exposes the results
// over HTTP.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litreview/internal/observability"
	"github.com/pdiddy/litreview/internal/secrets"
	"github.com/pdiddy/litreview/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the litreview CLI.
var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "PubMed literature retrieval and review pipeline",
	Long: `litreview runs a six-stage literature review pipeline against PubMed:
search, paper details with full text, figure capture, per-paper prompts,
an overview prompt, and an HTML report. Each project lives in its own
directory under the output dir and every stage persists its results, so
a failed run resumes from the stage that broke.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litreview.yaml or ~/.config/litreview/config.yaml)")
	rootCmd.PersistentFlags().String("output-dir", "", "base directory for project directories")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litreview")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litreview"))
		}
	}

	viper.SetEnvPrefix("LITREVIEW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file and environment over the defaults,
// then applies secrets from .secrets/ and persistent flag overrides.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	s, err := secrets.Load(".secrets/")
	if err != nil {
		return cfg, err
	}
	if cfg.Entrez.APIKey == "" {
		cfg.Entrez.APIKey = s.Get(secrets.NCBIAPIKey, "")
	}
	if cfg.Entrez.Email == "" {
		cfg.Entrez.Email = s.Get(secrets.EntrezEmail, "")
	}

	if out, _ := rootCmd.PersistentFlags().GetString("output-dir"); out != "" {
		cfg.OutputDir = out
	}
	if lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

func newLogger(cfg types.Config) zerolog.Logger {
	return observability.NewLogger(cfg.Logging)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
