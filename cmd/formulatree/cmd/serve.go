package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/formulatree/internal/core/api"
	"github.com/solatis/formulatree/internal/core/auth"
	"github.com/solatis/formulatree/internal/core/config"
	"github.com/solatis/formulatree/internal/core/db"
	"github.com/solatis/formulatree/internal/core/server"
	"github.com/solatis/formulatree/internal/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP formula APIs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	def := config.DefaultFormulaAPIConfig()
	serveCmd.Flags().String("host", def.Host, "listen host")
	serveCmd.Flags().Int("grpc-port", def.GRPCPort, "gRPC port")
	serveCmd.Flags().Int("http-port", def.HTTPPort, "HTTP port")
	serveCmd.Flags().String("lookup-policy", def.LookupPolicy, "rendering of 4th+ LOOKUP parameters (arguments, multiplier)")
	serveCmd.Flags().Bool("per-row-operators", def.PerRowOperators, "join rows with their own combinator instead of +")
	serveCmd.Flags().String("catalog", def.CatalogFile, "YAML parameter/unit catalog used when a tenant has none stored")
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	database, err := db.OpenContext(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.MigrateUp(database); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	if err := requireMigrated(database); err != nil {
		return err
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set FT_HMAC_SECRET environment variable)")
	}
	authenticator := auth.NewAuthenticator(secrets, queries)

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	policy, err := rules.ParseLookupPolicy(cfg.LookupPolicy)
	if err != nil {
		return err
	}

	service, err := api.NewFormulaService(db.NewRuleSetStore(queries), catalog, rules.Options{
		LookupPolicy:    policy,
		PerRowOperators: cfg.PerRowOperators,
	})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, log, authenticator.UnaryInterceptor(server.HealthCheckMethod))
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}
	httpServer, err := server.NewHTTPServer(cfg, api.NewHTTPHandler(service, authenticator.Middleware, log), log)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting formulatree", "version", Version, "host", cfg.Host, "grpc_port", cfg.GRPCPort, "http_port", cfg.HTTPPort)
	errChan := make(chan error, 2)
	go func() { errChan <- grpcServer.Start(ctx) }()
	go func() { errChan <- httpServer.Start(ctx) }()

	var serveErr error
	select {
	case serveErr = <-errChan:
		log.Error("server stopped unexpectedly", "error", serveErr)
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	}

	shutdownCtx := context.WithoutCancel(ctx)
	return errors.Join(serveErr, grpcServer.Shutdown(shutdownCtx), httpServer.Shutdown(shutdownCtx))
}

// requireMigrated fails when any embedded migration is still pending.
func requireMigrated(database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'formulatree migrate' first", s.ID)
		}
	}
	return nil
}
