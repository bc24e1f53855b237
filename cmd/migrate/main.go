package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"

	constants "github.com/padhaiwithai/student-logins/internal/constants"
	"github.com/padhaiwithai/student-logins/internal/logger"
	"github.com/padhaiwithai/student-logins/migrations"
	"github.com/padhaiwithai/student-logins/pkg/migrate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	connectionString := os.Getenv(constants.DATABASE_URL)
	if connectionString == "" {
		logger.LogError("DATABASE_URL environment variable is not set", nil)
		os.Exit(1)
	}

	migrator, err := migrate.NewMigrator(ctx, connectionString, migrationFiles())
	if err != nil {
		logger.LogError("Failed to create migrator", err)
		os.Exit(1)
	}
	defer migrator.Close(context.Background())

	switch command {
	case "up":
		err = handleUp(ctx, migrator)
	case "down":
		err = handleDown(ctx, migrator)
	case "steps":
		err = handleSteps(ctx, migrator, os.Args[2:])
	case "version", "status":
		err = handleVersion(ctx, migrator)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		err = fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		migrator.Close(context.Background())
		os.Exit(1)
	}
}

// migrationFiles prefers the directory named by MIGRATIONS_DIR over the
// migrations compiled into the binary.
func migrationFiles() fs.FS {
	if dir := os.Getenv(constants.MIGRATIONS_DIR); dir != "" {
		logger.LogInfo("Reading migrations from directory", "dir", dir)
		return os.DirFS(dir)
	}
	return migrations.FS
}

func handleUp(ctx context.Context, migrator *migrate.Migrator) error {
	logger.LogInfo("Applying migrations...")
	if err := migrator.Up(ctx); err != nil {
		logger.LogError("Failed to apply migrations", err)
		return err
	}
	logger.LogInfo("Migrations applied successfully!")
	return nil
}

func handleDown(ctx context.Context, migrator *migrate.Migrator) error {
	fmt.Println("Rolling back migration...")
	if err := migrator.Down(ctx); err != nil {
		logger.LogError("Failed to rollback migration", err)
		return err
	}
	fmt.Println("Migration rolled back successfully!")
	return nil
}

func handleSteps(ctx context.Context, migrator *migrate.Migrator, args []string) error {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: 'steps' command requires a number argument\n")
		return fmt.Errorf("missing steps argument")
	}

	steps, err := strconv.Atoi(args[0])
	if err != nil {
		logger.LogError("Invalid number", err)
		return err
	}

	if err := migrator.Steps(ctx, steps); err != nil {
		logger.LogError("Failed to execute steps", err)
		return err
	}
	return nil
}

func handleVersion(ctx context.Context, migrator *migrate.Migrator) error {
	version, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		logger.LogError("Failed to get current version", err)
		return err
	}

	if version == migrate.NoVersion {
		fmt.Println("Current migration version: none")
		return nil
	}
	fmt.Printf("Current migration version: %d\n", version)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stdout, `Usage: migrate <command>

Commands:
  up                  Apply all pending migrations
  down                Rollback the last migration
  steps <number>      Apply or rollback specific number of migrations
                      (positive for up, negative for down)
  version, status     Show current migration version
  help                Show this help message

Environment Variables:
  %s        Database connection URL
  %s      Read migrations from this directory instead of the built-in set

Examples:
  migrate up
  migrate down
  migrate steps 2
  migrate steps -1
  migrate version
`, constants.DATABASE_URL, constants.MIGRATIONS_DIR)
}
