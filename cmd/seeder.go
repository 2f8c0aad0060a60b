package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/pkg/logger"
)

var (
	seedEmail      string
	seedName       string
	seedDepartment []string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first Super Admin account",
	Long: `Create the bootstrap Super Admin so that further accounts can be created
through the signup endpoint. The password is read from SEED_ADMIN_PASSWORD.
Running it again for an existing email is a no-op.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.L()

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		mailer, err := newMailer(cfg.Mail, lg)
		if err != nil {
			log.Fatalf("failed to init mailer: %v", err)
		}

		app, err := buildApplication(cfg, gdb, db, mailer, lg)
		if err != nil {
			log.Fatalf("failed to wire application: %v", err)
		}

		created, err := seedSuperAdmin(cmd.Context(), app.AuthService, auth.SignupDTO{
			Name:       seedName,
			Email:      seedEmail,
			Password:   os.Getenv("SEED_ADMIN_PASSWORD"),
			Role:       auth.RoleSuperAdmin,
			Department: seedDepartment,
		})
		if err != nil {
			log.Fatalf("failed to seed super admin: %v", err)
		}
		if created {
			fmt.Println("Seeded super admin:", seedEmail)
		} else {
			fmt.Println("super admin already exists:", seedEmail)
		}
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "admin@snwareresearch.com", "email of the Super Admin")
	seedCmd.Flags().StringVar(&seedName, "name", "Super Admin", "display name of the Super Admin")
	seedCmd.Flags().StringSliceVar(&seedDepartment, "department", []string{"Management"}, "departments of the Super Admin")
}

// seedSuperAdmin creates the account with no acting user. It reports false
// when the email is already registered.
func seedSuperAdmin(ctx context.Context, svc auth.ServiceAPI, dto auth.SignupDTO) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := svc.Bootstrap(ctx, dto); err != nil {
		if errors.Is(err, internal.ErrEmailExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
