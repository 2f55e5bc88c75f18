package db

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	mdb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrations embed.FS

// Migrate brings the schema of an SQL database up to date. Memory databases
// need no migration.
func Migrate(driver, connStr string) (err error) {
	if driver == DriverMemory || driver == "" {
		return nil
	}

	var dir string
	switch driver {
	case DriverPostgres:
		dir = "migrations/postgres"
	case DriverSQLite:
		dir = "migrations/sqlite3"
	default:
		return errors.Errorf("unknown database driver %q", driver)
	}

	src, err := iofs.New(migrations, dir)
	if err != nil {
		return errors.Wrap(err, "failed reading migrations")
	}

	d, err := sql.Open(driver, connStr)
	if err != nil {
		return errors.Wrap(err, "failed opening database for migration")
	}

	var target mdb.Driver
	switch driver {
	case DriverPostgres:
		target, err = postgres.WithInstance(d, &postgres.Config{})
	case DriverSQLite:
		target, err = sqlite3.WithInstance(d, &sqlite3.Config{})
	}
	if err != nil {
		d.Close()
		return errors.Wrap(err, "failed preparing migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		d.Close()
		return errors.Wrap(err, "failed creating migrator")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil && srcErr != nil {
			err = errors.Wrap(srcErr, "failed closing migration source")
		}
		if err == nil && dbErr != nil {
			err = errors.Wrap(dbErr, "failed closing migration database")
		}
	}()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed applying migrations")
	}
	return nil
}
