// Command provision prepares the database and administrator accounts. The web
// server never creates accounts on its own.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/handsup/donation-platform/services"
	"github.com/handsup/donation-platform/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "provision",
		Short:        "Database and administrator provisioning for HandsUp",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml (default: ./config.yaml if present)")
	root.AddCommand(newMigrateCmd(), newAdminCmd())
	return root
}

func openDB() (*utils.Config, *gorm.DB, error) {
	cfg, err := utils.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := utils.InitDatabase(cfg.Database, true)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			return utils.MigrateDatabase(db)
		},
	}
}

func newAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an administrator, or promote and reset an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Admin.Email
			}
			if password == "" {
				password = cfg.Admin.Password
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or ADMIN_EMAIL and ADMIN_PASSWORD) are required")
			}

			if err := utils.MigrateDatabase(db); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			user, created, err := services.NewAuthService(db, cfg.SecretKey).ProvisionAdmin(ctx, email, password, name)
			if err != nil {
				return err
			}
			if created {
				log.Printf("Created administrator %s (id=%d)", user.Email, user.ID)
			} else {
				log.Printf("Promoted existing user %s (id=%d) to administrator", user.Email, user.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email (default: ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "administrator password, at least 8 characters (default: ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "Admin User", "administrator full name")
	return cmd
}
