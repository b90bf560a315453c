package database

import (
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMigrationsDir is where the schema migrations live relative to the
// working directory.
const DefaultMigrationsDir = "migrations"

// Migrate applies every pending up migration from dir.
func Migrate(databaseURL, dir string) error {
	m, closeDB, err := newMigrate(databaseURL, dir)
	if err != nil {
		return err
	}
	defer closeDB()

	err = m.Up()
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return eris.Wrap(err, "migrations: apply")
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		zap.L().Info("migrations: database is up to date (no migrations applied)")
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "migrations: read version")
	}
	if dirty {
		return eris.Errorf("migrations: version %d is dirty, manual intervention required", version)
	}

	if noChange {
		zap.L().Info("migrations: database is up to date", zap.Uint("version", version))
	} else {
		zap.L().Info("migrations: applied successfully", zap.Uint("version", version))
	}
	return nil
}

// MigrateDown reverts the last steps migrations.
func MigrateDown(databaseURL, dir string, steps int) error {
	if steps <= 0 {
		return eris.New("migrations: steps must be positive")
	}

	m, closeDB, err := newMigrate(databaseURL, dir)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "migrations: revert")
	}
	zap.L().Info("migrations: reverted", zap.Int("steps", steps))
	return nil
}

func newMigrate(databaseURL, dir string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "migrations: open database")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, eris.Wrap(err, "migrations: create driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, eris.Wrap(err, "migrations: create migrate instance")
	}

	return m, func() { db.Close() }, nil
}
