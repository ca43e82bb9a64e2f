package cmd

import (
	"context"
	"fmt"

	"github.com/solatis/blockvis/internal/core/auth"
	"github.com/solatis/blockvis/internal/core/config"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key for a tenant, creating the tenant if needed",
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke API_KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		database, queries, err := openDatabase(ctx, true)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := auth.RevokeKey(ctx, queries, args[0]); err != nil {
			return err
		}
		log.Info("api key revoked", "api_key_id", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)

	keysCreateCmd.Flags().String("tenant-name", "", "tenant name")
	keysCreateCmd.Flags().String("secret-id", "", "HMAC secret ID (default: the only configured secret)")
	keysCreateCmd.Flags().String("name", "default", "key label")
	_ = keysCreateCmd.MarkFlagRequired("tenant-name")
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	tenantName, _ := cmd.Flags().GetString("tenant-name")
	secretID, _ := cmd.Flags().GetString("secret-id")
	name, _ := cmd.Flags().GetString("name")

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if secretID == "" {
		if len(secrets) != 1 {
			return fmt.Errorf("--secret-id required when %d secrets are configured", len(secrets))
		}
		for id := range secrets {
			secretID = id
		}
	}

	database, queries, err := openDatabase(ctx, true)
	if err != nil {
		return err
	}
	defer database.Close()

	tenant, err := auth.EnsureTenant(ctx, queries, tenantName)
	if err != nil {
		return err
	}
	issued, err := auth.IssueKey(ctx, queries, secrets, secretID, tenant, name)
	if err != nil {
		return err
	}

	log.Info("api key issued", "api_key_id", issued.ID, "tenant_id", string(tenant))
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "api_key_id: %s\n", issued.ID)
	fmt.Fprintf(out, "tenant_id:  %s\n", tenant)
	fmt.Fprintf(out, "api_key:    %s\n", issued.Key)
	return nil
}
