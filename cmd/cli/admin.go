package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	"github.com/jcaplliure/EntrenadorBasket/internal/drill"
	"github.com/jcaplliure/EntrenadorBasket/internal/game"
	"github.com/jcaplliure/EntrenadorBasket/internal/identity"
	"github.com/jcaplliure/EntrenadorBasket/internal/user"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userEmail string
	userName  string
	userAdmin bool
	importAs  string
)

func init() {
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Email of the new account")
	createUserCmd.Flags().StringVar(&userName, "name", "", "Display name of the new account")
	createUserCmd.Flags().BoolVar(&userAdmin, "admin", false, "Grant administrator rights")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("name")

	importDrillsCmd.Flags().StringVar(&importAs, "as", "", "Email of the admin that will own imported drills")
	_ = importDrillsCmd.MarkFlagRequired("as")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(importDrillsCmd)
}

// openDB connects to Turso when TURSO_PRIMARY_URL is set, otherwise to the --db file.
// Pending migrations are applied on open.
func openDB() (*sql.DB, func(), error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, reading from environment variables")
	}
	return database.InitDB(dbPath, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"))
}

func adminEmail() string {
	return user.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
}

// adminIdentity resolves an existing account and checks it may run admin operations.
func adminIdentity(ctx context.Context, users user.UserStore, email string) (identity.Identity, error) {
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to load %s: %w", email, err)
	}
	id := identity.Identity{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin || users.IsAdminEmail(u.Email),
	}
	if err := id.RequireAdmin(); err != nil {
		return identity.Identity{}, fmt.Errorf("%s is not an administrator: %w", email, err)
	}
	return id, nil
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) < 6 {
		return "", errors.New("password must have at least 6 characters")
	}
	return string(first), nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, teardown, err := openDB()
		if err != nil {
			return err
		}
		teardown()
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a password account without an invitation",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		hash, err := user.HashPassword(password)
		if err != nil {
			return err
		}

		db, teardown, err := openDB()
		if err != nil {
			return err
		}
		defer teardown()

		ctx := cmd.Context()
		u := &user.User{
			Email:        userEmail,
			Name:         strings.TrimSpace(userName),
			PasswordHash: hash,
			IsAdmin:      userAdmin,
		}
		if err := user.New(db, adminEmail()).Create(ctx, u); err != nil {
			return err
		}
		if err := game.New(db).InstallDefaults(ctx, u.ID); err != nil {
			return fmt.Errorf("failed to install game defaults: %w", err)
		}
		fmt.Printf("Created user %d (%s)\n", u.ID, u.Email)
		return nil
	},
}

var inviteCmd = &cobra.Command{
	Use:   "invite <email>",
	Short: "Allow an email to register, acting as ADMIN_EMAIL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail() == "" {
			return errors.New("ADMIN_EMAIL is not set")
		}
		db, teardown, err := openDB()
		if err != nil {
			return err
		}
		defer teardown()

		ctx := cmd.Context()
		users := user.New(db, adminEmail())
		actor, err := adminIdentity(ctx, users, adminEmail())
		if err != nil {
			return err
		}
		if err := users.Invite(ctx, actor, args[0]); err != nil {
			return err
		}
		fmt.Printf("Invited %s\n", user.NormalizeEmail(args[0]))
		return nil
	},
}

var importDrillsCmd = &cobra.Command{
	Use:   "import-drills <file.csv>",
	Short: "Bulk import link drills from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		db, teardown, err := openDB()
		if err != nil {
			return err
		}
		defer teardown()

		ctx := cmd.Context()
		actor, err := adminIdentity(ctx, user.New(db, adminEmail()), user.NormalizeEmail(importAs))
		if err != nil {
			return err
		}
		report, err := drill.New(db).Import(ctx, actor, f)
		if err != nil {
			return err
		}
		fmt.Printf("Created: %d  Updated: %d  Rejected: %d\n", report.Created, report.Updated, len(report.Rejected))
		for _, rej := range report.Rejected {
			fmt.Printf("  line %d: %s\n", rej.Line, rej.Reason)
		}
		return nil
	},
}
