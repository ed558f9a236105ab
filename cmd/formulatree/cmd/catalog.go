package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/formulatree/internal/core/config"
	"github.com/solatis/formulatree/internal/core/db"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage tenant parameter and unit catalogs",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <catalog.yaml>",
	Short: "Replace a tenant's stored catalog with a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImport,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogImportCmd.Flags().String("tenant", "", "tenant name (created if missing)")
	catalogImportCmd.MarkFlagRequired("tenant")
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	cf, err := config.LoadCatalogFile(args[0])
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	tenantName, _ := cmd.Flags().GetString("tenant")
	tenant, err := store.EnsureTenant(cmd.Context(), tenantName)
	if err != nil {
		return err
	}
	if err := store.ReplaceCatalog(cmd.Context(), tenant.ID, cf.Params, cf.UOMs); err != nil {
		return err
	}

	log.Info("catalog imported", "tenant", tenant.Name, "params", len(cf.Params), "uoms", len(cf.UOMs))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d params and %d uoms for tenant %s\n", len(cf.Params), len(cf.UOMs), tenant.Name)
	return nil
}

// openStore opens the configured database and requires it to be migrated.
func openStore(cmd *cobra.Command) (*db.RuleSetStore, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.OpenContext(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := requireMigrated(database); err != nil {
		database.Close()
		return nil, nil, err
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return db.NewRuleSetStore(queries), func() { database.Close() }, nil
}
