package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/frahmantamala/storeadmin/internal/auth"
	"github.com/frahmantamala/storeadmin/internal/core/user"
	"github.com/frahmantamala/storeadmin/internal/rbac"
	userAdmin "github.com/frahmantamala/storeadmin/internal/user"
	userPostgres "github.com/frahmantamala/storeadmin/internal/user/postgres"
	"github.com/spf13/cobra"
)

var (
	seedPassword string
	seedSamples  bool
)

type seedUser struct {
	Username string
	Email    string
	Role     rbac.Role
}

var seedUsers = []seedUser{
	{"superadmin", "superadmin@store.local", rbac.RoleSuperAdmin},
	{"administrator", "administrator@store.local", rbac.RoleAdministrator},
	{"manager", "manager@store.local", rbac.RoleManager},
	{"crm", "crm@store.local", rbac.RoleCRMManager},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with admin users",
	Long:  `Bootstrap a super admin and, with --samples, one user per remaining role.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		password := seedPassword
		if password == "" {
			password = os.Getenv("SEED_ADMIN_PASSWORD")
		}
		if len(password) < 8 {
			log.Fatal("seed password must be at least 8 characters (use --password or SEED_ADMIN_PASSWORD)")
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db, cfg.Env)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		hash, err := auth.HashPassword(password, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		users := seedUsers[:1]
		if seedSamples {
			users = seedUsers
		}

		repo := userPostgres.NewUserRepository(gormDB)
		ctx := context.Background()
		for _, su := range users {
			u := &user.User{
				Username:     su.Username,
				Email:        su.Email,
				PasswordHash: hash,
				Role:         su.Role,
				IsActive:     true,
			}
			if err := repo.Create(ctx, u); err != nil {
				if errors.Is(err, userAdmin.ErrAlreadyExists) {
					fmt.Printf("%s already exists; skipping\n", su.Username)
					continue
				}
				log.Fatalf("failed to seed %s: %v", su.Username, err)
			}
			fmt.Printf("Seeded %s (%s) with role %s\n", su.Username, su.Email, su.Role)
		}
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedPassword, "password", "p", "", "password for seeded users (defaults to SEED_ADMIN_PASSWORD)")
	seedCmd.Flags().BoolVar(&seedSamples, "samples", false, "also seed one sample user per non-super role")
}
