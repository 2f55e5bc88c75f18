package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

/**
DB tables:
- pressure:
	- id: bigserial - record ID
	- user_id: bigint - record owner
	- date: text - day the reading applies to, YYYY-MM-DD
	- time: text - insertion time, HH:MM:SS
	- systolic, diastolic: integer - mmHg
	- pulse: integer - beats/min, 0 if not provided
	- note: text - reserved

- pins:
	- user_id: bigint - primary key
	- record_id: bigint - record awaiting new values
	- mode: text - pin mode

Indexes:
- pressure:
	- (user_id, date, time)
*/

// pgxConn is the part of pgxpool.Pool the database uses
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Postgres struct {
	Conn pgxConn
}

func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	// connection string should look like postgresql://localhost:5432/pressure_diary?user=admn&password=passwd
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed creating connection pool")
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed pinging database")
	}

	return &Postgres{Conn: pool}, nil
}

func (d *Postgres) Ping(ctx context.Context) error {
	return d.Conn.Ping(ctx)
}

func (d *Postgres) Close() {
	d.Conn.Close()
}

// Insert appends a new record and returns its ID
func (d *Postgres) Insert(ctx context.Context, usr int64, date, tm string, sys, dia, pulse int) (int64, error) {
	var id int64
	err := d.Conn.QueryRow(ctx, `INSERT INTO pressure(user_id, date, time, systolic, diastolic, pulse, note)
VALUES($1, $2, $3, $4, $5, $6, '')
RETURNING id`, usr, date, tm, sys, dia, pulse).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "failed inserting record")
	}

	return id, nil
}

// FindLatest returns the record with the greatest (date, time) of the user
func (d *Postgres) FindLatest(ctx context.Context, usr int64) (*Record, error) {
	query := `SELECT ` + recordColumns + `
FROM pressure
WHERE user_id=$1
ORDER BY date DESC, time DESC, id DESC
LIMIT 1`

	return d.findOne(ctx, query, usr)
}

// FindByDateLatest returns the latest record of the user for the date
func (d *Postgres) FindByDateLatest(ctx context.Context, usr int64, date string) (*Record, error) {
	query := `SELECT ` + recordColumns + `
FROM pressure
WHERE user_id=$1 AND date=$2
ORDER BY time DESC, id DESC
LIMIT 1`

	return d.findOne(ctx, query, usr, date)
}

func (d *Postgres) FindByID(ctx context.Context, id int64) (*Record, error) {
	return d.findOne(ctx, `SELECT `+recordColumns+` FROM pressure WHERE id=$1`, id)
}

func (d *Postgres) findOne(ctx context.Context, query string, args ...any) (*Record, error) {
	r, err := scanRecord(d.Conn.QueryRow(ctx, query, args...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching record")
	}

	return r, nil
}

// Update overwrites readings of the record, date and time are kept
func (d *Postgres) Update(ctx context.Context, id int64, sys, dia, pulse int) error {
	tag, err := d.Conn.Exec(ctx, `UPDATE pressure SET systolic=$1, diastolic=$2, pulse=$3 WHERE id=$4`, sys, dia, pulse, id)
	if err != nil {
		return errors.Wrap(err, "failed updating record")
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := d.Conn.Exec(ctx, `DELETE FROM pressure WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "failed deleting record")
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records of the user, the latest first. Non-positive limit
// means no limit.
func (d *Postgres) List(ctx context.Context, usr int64, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + `
FROM pressure
WHERE user_id=$1
ORDER BY date DESC, time DESC, id DESC`
	args := []any{usr}
	if limit > 0 {
		query += `
LIMIT $2`
		args = append(args, limit)
	}

	rows, err := d.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying records")
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed scanning record")
		}
		recs = append(recs, *r)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading records")
	}
	return recs, nil
}

func (d *Postgres) SetPin(ctx context.Context, p Pin) error {
	_, err := d.Conn.Exec(ctx, `INSERT INTO pins(user_id, record_id, mode)
VALUES($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET record_id=EXCLUDED.record_id, mode=EXCLUDED.mode`, p.UserID, p.RecordID, string(p.Mode))
	if err != nil {
		return errors.Wrap(err, "failed setting pin")
	}
	return nil
}

// TakePin returns the pin of the user and deletes it in one statement
func (d *Postgres) TakePin(ctx context.Context, usr int64) (*Pin, error) {
	p := Pin{UserID: usr}
	var mode string
	err := d.Conn.QueryRow(ctx, `DELETE FROM pins WHERE user_id=$1 RETURNING record_id, mode`, usr).Scan(&p.RecordID, &mode)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed taking pin")
	}

	p.Mode = PinMode(mode)
	return &p, nil
}
