package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	iofs "github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"jan-server/services/chatbot-api/internal/infrastructure/database/entities"
	"jan-server/services/chatbot-api/migrations"
)

const migrationsTable = "schema_migrations"

// Migrate brings the schema up to date. PostgreSQL uses the bundled SQL
// migrations; SQLite, which only backs local runs, uses GORM AutoMigrate.
func Migrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if db.Dialector.Name() == DriverSQLite {
		return autoMigrate(ctx, db, log)
	}
	return MigrateUp(ctx, db, log)
}

func autoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Conversation{}, &entities.Message{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info().Msg("SQLite schema migrated")
	return nil
}

// MigrationFiles lists the bundled migration files in apply order.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// WithMigrator opens a golang-migrate instance on a dedicated connection and closes it after fn returns.
func WithMigrator(ctx context.Context, gormDB *gorm.DB, fn func(m *migrate.Migrate) error) (err error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("retrieve sql db: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire dedicated connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("initialize postgres driver: %w", err)
	}
	defer func() {
		if closeErr := driver.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration connection: %w", closeErr)
		}
	}()

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close migration source: %w", closeErr)
		}
	}()

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	return fn(migrator)
}

// MigrateUp applies every pending SQL migration.
func MigrateUp(ctx context.Context, gormDB *gorm.DB, log zerolog.Logger) error {
	files, err := MigrationFiles()
	if err != nil {
		return err
	}
	for _, file := range files {
		log.Debug().Str("file", file).Msg("Found migration file")
	}

	return WithMigrator(ctx, gormDB, func(migrator *migrate.Migrate) error {
		version, dirty, err := migrator.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info().Msg("No migrations have been applied yet")
		case err != nil:
			log.Warn().Err(err).Msg("Error getting migration version")
		default:
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration state")
		}

		if dirty {
			log.Warn().Uint("version", version).Msg("Database is in dirty state, forcing version")
			if forceErr := migrator.Force(int(version)); forceErr != nil {
				return fmt.Errorf("force version %d to clear dirty state: %w", version, forceErr)
			}
		}

		if err := migrator.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info().Msg("No new migrations to apply")
				return nil
			}
			return fmt.Errorf("apply migrations: %w", err)
		}

		if finalVersion, _, versionErr := migrator.Version(); versionErr == nil {
			log.Info().Uint("version", finalVersion).Msg("Migrations applied successfully")
		}
		return nil
	})
}
