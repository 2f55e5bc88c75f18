package db

import "github.com/pkg/errors"

// Supported storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var ErrNotFound = errors.New("record not found")

// A Record keeps one blood pressure reading of a user
type Record struct {
	ID        int64
	UserID    int64
	Date      string // the day the reading applies to, YYYY-MM-DD
	Time      string // wall-clock time of insertion, HH:MM:SS
	Systolic  int    // mmHg
	Diastolic int    // mmHg
	Pulse     int    // beats/min, 0 means not provided
	Note      string // reserved, always empty
}

type PinMode string

const PinModeEditing PinMode = "editing"

// Pin marks a record that awaits the next message of the user as its new values
type Pin struct {
	UserID   int64
	RecordID int64
	Mode     PinMode
}
