package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SQLite struct {
	db *sql.DB
}

const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000"

// sqliteDSN appends connection parameters, keeping those already in path
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	d, err := sql.Open(DriverSQLite, sqliteDSN(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed opening database")
	}

	// a single writer keeps SQLite from reporting "database is locked"
	d.SetMaxOpenConns(1)

	if err = d.PingContext(ctx); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "failed pinging database")
	}

	return &SQLite{db: d}, nil
}

func (d *SQLite) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *SQLite) Close() {
	d.db.Close()
}

func (d *SQLite) Insert(ctx context.Context, usr int64, date, tm string, sys, dia, pulse int) (int64, error) {
	res, err := d.db.ExecContext(ctx, `INSERT INTO pressure(user_id, date, time, systolic, diastolic, pulse, note)
VALUES(?, ?, ?, ?, ?, ?, '')`, usr, date, tm, sys, dia, pulse)
	if err != nil {
		return 0, errors.Wrap(err, "failed inserting record")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed fetching record ID")
	}
	return id, nil
}

func (d *SQLite) FindLatest(ctx context.Context, usr int64) (*Record, error) {
	query := `SELECT ` + recordColumns + `
FROM pressure
WHERE user_id=?
ORDER BY date DESC, time DESC, id DESC
LIMIT 1`

	return d.findOne(ctx, query, usr)
}

func (d *SQLite) FindByDateLatest(ctx context.Context, usr int64, date string) (*Record, error) {
	query := `SELECT ` + recordColumns + `
FROM pressure
WHERE user_id=? AND date=?
ORDER BY time DESC, id DESC
LIMIT 1`

	return d.findOne(ctx, query, usr, date)
}

func (d *SQLite) FindByID(ctx context.Context, id int64) (*Record, error) {
	return d.findOne(ctx, `SELECT `+recordColumns+` FROM pressure WHERE id=?`, id)
}

func (d *SQLite) findOne(ctx context.Context, query string, args ...any) (*Record, error) {
	r, err := scanRecord(d.db.QueryRowContext(ctx, query, args...))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching record")
	}

	return r, nil
}

func (d *SQLite) Update(ctx context.Context, id int64, sys, dia, pulse int) error {
	res, err := d.db.ExecContext(ctx, `UPDATE pressure SET systolic=?, diastolic=?, pulse=? WHERE id=?`, sys, dia, pulse, id)
	if err != nil {
		return errors.Wrap(err, "failed updating record")
	}

	return affectedOne(res)
}

func (d *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM pressure WHERE id=?`, id)
	if err != nil {
		return errors.Wrap(err, "failed deleting record")
	}

	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed counting affected rows")
	}

	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *SQLite) List(ctx context.Context, usr int64, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + `
FROM pressure
WHERE user_id=?
ORDER BY date DESC, time DESC, id DESC`
	args := []any{usr}
	if limit > 0 {
		query += `
LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
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

func (d *SQLite) SetPin(ctx context.Context, p Pin) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO pins(user_id, record_id, mode)
VALUES(?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET record_id=excluded.record_id, mode=excluded.mode`, p.UserID, p.RecordID, string(p.Mode))
	if err != nil {
		return errors.Wrap(err, "failed setting pin")
	}
	return nil
}

func (d *SQLite) TakePin(ctx context.Context, usr int64) (*Pin, error) {
	p := Pin{UserID: usr}
	var mode string
	err := d.db.QueryRowContext(ctx, `DELETE FROM pins WHERE user_id=? RETURNING record_id, mode`, usr).Scan(&p.RecordID, &mode)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed taking pin")
	}

	p.Mode = PinMode(mode)
	return &p, nil
}
