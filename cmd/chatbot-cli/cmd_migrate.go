package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/chatbot-api/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migrations",
	Long:  `Apply, roll back and inspect the bundled SQL migrations against DATABASE_URL.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Long:  `Roll back the most recent migration, or every migration with --all.`,
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE:  runMigrateVersion,
}

var migrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundled migration files",
	RunE:  runMigrateList,
}

var (
	databaseURL string
	downAll     bool
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	migrateCmd.AddCommand(migrateListCmd)

	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL DSN (defaults to DATABASE_URL)")
	migrateDownCmd.Flags().BoolVar(&downAll, "all", false, "Roll back every migration")
}

func openDatabase() (*gorm.DB, error) {
	dsn := databaseURL
	if dsn == "" {
		dsn = settings.DatabaseURL
	}
	return database.Connect(database.Config{
		Driver:   database.DriverPostgres,
		DSN:      dsn,
		LogLevel: gormlogger.Silent,
	})
}

func cliLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if isVerbose(cmd) {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.MigrateUp(cmd.Context(), db, cliLogger(cmd))
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.WithMigrator(cmd.Context(), db, func(m *migrate.Migrate) error {
		var err error
		if downAll {
			err = m.Down()
		} else {
			err = m.Steps(-1)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("Nothing to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("roll back: %w", err)
		}
		fmt.Println("Rolled back successfully")
		return nil
	})
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.WithMigrator(cmd.Context(), db, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Version: %d (dirty: %t)\n", version, dirty)
		return nil
	})
}

func runMigrateList(cmd *cobra.Command, args []string) error {
	files, err := database.MigrationFiles()
	if err != nil {
		return err
	}
	for _, file := range files {
		fmt.Println(file)
	}
	return nil
}
