package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/config"
	"github.com/SmoothCdoer9981/bookclub/internal/database"
)

// PromoteHeadCommand raises an existing account to the head tier.
type PromoteHeadCommand struct {
	DatabasePath string
	Username     string
}

// NewPromoteHeadCommand creates a new PromoteHeadCommand
func NewPromoteHeadCommand() *PromoteHeadCommand {
	return &PromoteHeadCommand{}
}

// ParseFlags parses command line flags
func (cmd *PromoteHeadCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("promote-head", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Username, "username", "", "Username of the account to promote")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s promote-head -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Promote an existing account to the head tier.\n\n")
		fmt.Fprintf(os.Stderr, "Head accounts can manage users, issue invites and restore backups.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s promote-head -username alice\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s promote-head -username alice -db /data/bookclub.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("username is required")
	}

	return nil
}

// Run executes the promotion
func (cmd *PromoteHeadCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, config.Auth{})
	user, err := service.PromoteToHead(cmd.Username)
	if err != nil {
		return fmt.Errorf("failed to promote %s: %w", cmd.Username, err)
	}

	fmt.Printf("Promoted %s (id %d) to head\n", user.Username, user.ID)
	return nil
}
