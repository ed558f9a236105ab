package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/formulatree/internal/rules"
)

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*FormulaAPIConfig, error) {
	return LoadConfigWith(viper.New(), configPath)
}

// LoadConfigWith is LoadConfig on a caller-supplied viper instance, so the
// CLI can bind its flags before loading.
func LoadConfigWith(v *viper.Viper, configPath string) (*FormulaAPIConfig, error) {
	def := DefaultFormulaAPIConfig()
	v.SetDefault("formula_api.host", def.Host)
	v.SetDefault("formula_api.grpc_port", def.GRPCPort)
	v.SetDefault("formula_api.http_port", def.HTTPPort)
	v.SetDefault("formula_api.max_connections", def.MaxConnections)
	v.SetDefault("formula_api.request_timeout", def.RequestTimeout.String())
	v.SetDefault("formula_api.database_url", def.DatabaseURL)
	v.SetDefault("formula_api.lookup_policy", def.LookupPolicy)
	v.SetDefault("formula_api.per_row_operators", def.PerRowOperators)
	v.SetDefault("formula_api.catalog_file", def.CatalogFile)

	// FT_FORMULA_API_GRPC_PORT overrides formula_api.grpc_port.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &FormulaAPIConfig{
		Host:            v.GetString("formula_api.host"),
		GRPCPort:        v.GetInt("formula_api.grpc_port"),
		HTTPPort:        v.GetInt("formula_api.http_port"),
		MaxConnections:  v.GetInt("formula_api.max_connections"),
		RequestTimeout:  v.GetDuration("formula_api.request_timeout"),
		DatabaseURL:     v.GetString("formula_api.database_url"),
		LookupPolicy:    v.GetString("formula_api.lookup_policy"),
		PerRowOperators: v.GetBool("formula_api.per_row_operators"),
		CatalogFile:     v.GetString("formula_api.catalog_file"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges, positive limits and the engine options.
func validateConfig(cfg *FormulaAPIConfig) error {
	for name, port := range map[string]int{"grpc_port": cfg.GRPCPort, "http_port": cfg.HTTPPort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
		}
	}
	if cfg.GRPCPort == cfg.HTTPPort {
		return fmt.Errorf("grpc_port and http_port must differ, both are %d", cfg.GRPCPort)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if _, err := rules.ParseLookupPolicy(cfg.LookupPolicy); err != nil {
		return fmt.Errorf("lookup_policy: %w", err)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("formula_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use FT_HMAC_SECRET environment variable)")
	}
	return nil
}
