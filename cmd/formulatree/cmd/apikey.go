package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/formulatree/internal/core/auth"
	"github.com/solatis/formulatree/internal/core/config"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Issue and revoke API keys",
}

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key for a tenant",
	Long: `Issues a key signed with one of the FT_HMAC_SECRET secrets. The key is
printed once; only its HMAC is stored.`,
	RunE: runAPIKeyCreate,
}

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apiKeyCmd)
	apiKeyCmd.AddCommand(apiKeyCreateCmd, apiKeyRevokeCmd)
	apiKeyCreateCmd.Flags().String("tenant", "", "tenant name (created if missing)")
	apiKeyCreateCmd.Flags().String("name", "default", "label for the key")
	apiKeyCreateCmd.Flags().String("secret-id", "", "secret to sign with (defaults to the only configured secret)")
	apiKeyCreateCmd.MarkFlagRequired("tenant")
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		if len(secrets) != 1 {
			ids := make([]string, 0, len(secrets))
			for id := range secrets {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			return fmt.Errorf("--secret-id required when %d secrets are configured %v", len(secrets), ids)
		}
		for id := range secrets {
			secretID = id
		}
	}
	secret, ok := secrets[secretID]
	if !ok {
		return fmt.Errorf("secret %s is not configured", secretID)
	}

	key, hash, err := auth.GenerateAPIKey(secretID, secret)
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
	name, _ := cmd.Flags().GetString("name")
	keyID, err := store.CreateAPIKey(cmd.Context(), tenant.ID, name, secretID, hash)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tenant:  %s (%s)\n", tenant.Name, tenant.ID)
	fmt.Fprintf(out, "key id:  %s\n", keyID)
	fmt.Fprintf(out, "api key: %s\n", key)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.RevokeAPIKey(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}
