package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/solatis/formulatree/internal/core/config"
	"github.com/solatis/formulatree/internal/logger"
)

// Version is the CLI and service version.
const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "formulatree",
	Short:         "formulatree rule-tree formula engine",
	Long:          `formulatree edits, validates and stores rule trees and renders them as pricing formulas.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	def := config.DefaultFormulaAPIConfig()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", def.DatabaseURL, "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from the persistent flags and installs
// it as the slog default.
func newLogger(cmd *cobra.Command) *slog.Logger {
	log := logger.New(logLevel, logFormat, cmd.ErrOrStderr())
	slog.SetDefault(log)
	return log
}

// flagKeys maps CLI flags onto config keys. Only flags defined on the running
// command are bound.
var flagKeys = map[string]string{
	"db-url":            "formula_api.database_url",
	"host":              "formula_api.host",
	"grpc-port":         "formula_api.grpc_port",
	"http-port":         "formula_api.http_port",
	"lookup-policy":     "formula_api.lookup_policy",
	"per-row-operators": "formula_api.per_row_operators",
	"catalog":           "formula_api.catalog_file",
}

// loadConfig applies CLI flags > environment > config file > defaults.
func loadConfig(cmd *cobra.Command) (*config.FormulaAPIConfig, error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
	}
	cfg, err := config.LoadConfigWith(v, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
