// Package store persists the planning domain in SQLite. The planner core
// never touches this package directly: snapshots flow out, effects flow in,
// and every commit runs inside a single transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Config defines where the database lives.
type Config struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "meterplan.db"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS technicians (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS addresses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    street TEXT NOT NULL,
    house_no TEXT NOT NULL,
    zip TEXT NOT NULL,
    city TEXT NOT NULL,
    customer_name TEXT NOT NULL DEFAULT '',
    customer_email TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    buffer_flag INTEGER NOT NULL DEFAULT 0,
    buffer_note TEXT NOT NULL DEFAULT '',
    blocked_reason TEXT,
    old_meter_no TEXT NOT NULL DEFAULT '',
    new_meter_no TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS street_priorities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    street TEXT NOT NULL UNIQUE,
    priority INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS availability (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    technician_id INTEGER NOT NULL REFERENCES technicians(id),
    day TEXT NOT NULL,
    start_at INTEGER NOT NULL,
    end_at INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (technician_id, day)
);
CREATE TABLE IF NOT EXISTS appointments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    address_id INTEGER NOT NULL REFERENCES addresses(id),
    technician_id INTEGER NOT NULL REFERENCES technicians(id),
    starts_at INTEGER NOT NULL,
    ends_at INTEGER NOT NULL,
    status TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    old_meter_no TEXT NOT NULL DEFAULT '',
    new_meter_no TEXT NOT NULL DEFAULT '',
    changed_at INTEGER,
    changed_by INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_appointments_address ON appointments(address_id);
CREATE INDEX IF NOT EXISTS idx_appointments_technician ON appointments(technician_id, starts_at);
CREATE TABLE IF NOT EXISTS meter_batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    quantity INTEGER NOT NULL,
    reference TEXT NOT NULL DEFAULT '',
    meter_type TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    purchased_at INTEGER NOT NULL,
    created_by INTEGER
);
CREATE TABLE IF NOT EXISTS stock_movements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    movement_type TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    batch_id INTEGER REFERENCES meter_batches(id),
    created_by INTEGER,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS unavailable_periods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    address_id INTEGER REFERENCES addresses(id),
    starts_at INTEGER NOT NULL,
    ends_at INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`

// Open opens or creates the database at path and ensures the schema.
// Foreign keys are enforced so a commit referencing a missing address or
// technician fails instead of persisting a dangling row.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

const dayFormat = "2006-01-02"

func toUnix(t time.Time) int64 { return t.Unix() }

func fromUnix(v int64) time.Time { return time.Unix(v, 0).UTC() }

func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnix(v.Int64)
	return &t
}

func nullID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func idOrNil(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
