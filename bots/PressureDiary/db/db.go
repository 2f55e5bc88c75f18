package db

import (
	"context"

	"github.com/pkg/errors"
)

// Database is an entry store that also keeps conversation pins. Every
// mutation is durable by the time the call returns.
type Database interface {
	Insert(ctx context.Context, usr int64, date, tm string, sys, dia, pulse int) (int64, error)
	FindLatest(ctx context.Context, usr int64) (*Record, error)
	FindByDateLatest(ctx context.Context, usr int64, date string) (*Record, error)
	FindByID(ctx context.Context, id int64) (*Record, error)
	Update(ctx context.Context, id int64, sys, dia, pulse int) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, usr int64, limit int) ([]Record, error)

	SetPin(ctx context.Context, p Pin) error
	TakePin(ctx context.Context, usr int64) (*Pin, error)

	Ping(ctx context.Context) error
	Close()
}

// Open connects to the database of the given driver. SQL databases are
// migrated to the latest schema first.
func Open(ctx context.Context, driver, connStr string) (Database, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil

	case DriverPostgres:
		if err := Migrate(driver, connStr); err != nil {
			return nil, err
		}
		return NewPostgres(ctx, connStr)

	case DriverSQLite:
		if err := Migrate(driver, connStr); err != nil {
			return nil, err
		}
		return NewSQLite(ctx, connStr)
	}

	return nil, errors.Errorf("unknown database driver %q", driver)
}

type scanner interface {
	Scan(dest ...any) error
}

const recordColumns = `id, user_id, date, time, systolic, diastolic, pulse, note`

func scanRecord(row scanner) (*Record, error) {
	var r Record
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &r.Time, &r.Systolic, &r.Diastolic, &r.Pulse, &r.Note); err != nil {
		return nil, err
	}
	return &r, nil
}
