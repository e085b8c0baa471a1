package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/config"
	"github.com/SmoothCdoer9981/bookclub/internal/database"
)

// ResetAdminCommand wipes all accounts and creates a fresh head account.
// Books, chapters and reviews are left untouched.
type ResetAdminCommand struct {
	DatabasePath string
	Username     string
	Password     string
	Yes          bool
}

// NewResetAdminCommand creates a new ResetAdminCommand
func NewResetAdminCommand() *ResetAdminCommand {
	return &ResetAdminCommand{}
}

// ParseFlags parses command line flags
func (cmd *ResetAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reset-admin", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Username, "username", "admin", "Username for the new head account")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new head account (prompted if omitted)")
	fs.BoolVar(&cmd.Yes, "yes", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reset-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete ALL user accounts and create a single head account.\n\n")
		fmt.Fprintf(os.Stderr, "The catalog, reviews and reading progress are not touched, but\n")
		fmt.Fprintf(os.Stderr, "reviews lose their author linkage. Use this to recover a locked-out\n")
		fmt.Fprintf(os.Stderr, "installation or to bootstrap the first account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s reset-admin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s reset-admin -username overseer -yes\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	return nil
}

// Run executes the reset
func (cmd *ResetAdminCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	if !cmd.Yes {
		fmt.Printf("This will DELETE ALL accounts in %s. Continue? [y/N] ", absDBPath)
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	password := cmd.Password
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, config.Auth{BcryptCost: 12})
	user, err := service.ResetAdmin(cmd.Username, password)
	if err != nil {
		return fmt.Errorf("failed to reset accounts: %w", err)
	}

	fmt.Printf("Created head account %s (id %d)\n", user.Username, user.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("New password: ")
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
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
