// inventoryctl is the operator CLI: it seeds shop accounts and runs one-off
// trash sweeps against the configured database.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/inventoryctl seed-user --shop <id> --username admin --password ... --role Admin
//	go run ./cmd/inventoryctl sweep-trash
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/workflow"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var migrate bool
	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Operator commands for the inventory backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if config.GetDB() == nil {
				config.ConnectDatabaseWithRetry()
			}
			if config.GetDB() == nil {
				return fmt.Errorf("database not initialized. Set DB_* env vars")
			}
			if migrate {
				return models.MigrateTable()
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&migrate, "migrate", false, "run AutoMigrate before the command")
	root.AddCommand(newSeedUserCommand(), newSweepTrashCommand())
	return root
}

func newSeedUserCommand() *cobra.Command {
	var (
		shopsId     string
		username    string
		password    string
		role        string
		permissions []string
	)
	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create an account for a shop",
		Example: `  inventoryctl seed-user --shop 1f0c... --username owner --password secret --role Admin
  inventoryctl seed-user --shop 1f0c... --username clerk --password secret --permission inventory.read`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := models.CreateShopUser(cmd.Context(), shopsId, "inventoryctl", &models.NewUser{
				Username:    username,
				Password:    password,
				Role:        models.UserRole(role),
				Permissions: permissions,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user: username=%q id=%s shop=%s\n", username, res.Id, shopsId)
			return nil
		},
	}
	cmd.Flags().StringVar(&shopsId, "shop", "", "shop (tenant) id")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(models.UserRoleStaff), "Admin or Staff")
	cmd.Flags().StringSliceVar(&permissions, "permission", nil, "permission granted to the user (repeatable)")
	_ = cmd.MarkFlagRequired("shop")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSweepTrashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-trash",
		Short: "Hard delete trash older than TRASH_RETENTION_DAYS once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if config.GetRedisDB() == nil && os.Getenv("REDIS_ADDRESS") != "" {
				config.ConnectRedisWithRetry(ctx)
			}
			reaper := workflow.NewTrashReaper(config.GetLogger(), config.GetSettings())
			res, err := reaper.SweepOnce(ctx)
			if err != nil {
				return fmt.Errorf("sweep trash: %w", err)
			}
			if res == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Another instance holds the reaper lock; nothing swept")
				return nil
			}
			kinds := []models.DeletedType{
				models.DeletedTypeBrandType,
				models.DeletedTypeInventoryType,
				models.DeletedTypeBranchType,
				models.DeletedTypeInventory,
			}
			for _, kind := range kinds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted=%d skipped=%d\n", kind, res.Deleted[kind], res.Skipped[kind])
			}
			return nil
		},
	}
}
