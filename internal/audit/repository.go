// Package audit keeps a write-only log of the LED commands the director
// published, for later inspection through the status API.
//
// Nothing in this package is read back at startup: the log is a record of
// what happened, never a source of controller state.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// List limits.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one published command.
type Entry struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"device_id"`
	At           time.Time `json:"at"`
	Trigger      string    `json:"trigger"`
	Reason       string    `json:"reason"`
	R            uint8     `json:"r"`
	G            uint8     `json:"g"`
	B            uint8     `json:"b"`
	Illuminance  *float64  `json:"illuminance"`
	ActiveMotion int       `json:"active_motion"`
}

// Filter controls which entries List returns.
type Filter struct {
	DeviceID string // optional
	Limit    int    // default DefaultLimit, max MaxLimit
}

// Repository defines the actuation log operations.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteRepository stores entries in the actuation_log table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts an entry. The ID and At are generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "act-" + uuid.NewString()[:8]
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	var illuminance sql.NullFloat64
	if e.Illuminance != nil {
		illuminance = sql.NullFloat64{Float64: *e.Illuminance, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actuation_log (id, device_id, at, trigger_kind, reason, r, g, b, illuminance, active_motion)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.DeviceID, e.At.UTC().Format(timeLayout),
		e.Trigger, e.Reason,
		int(e.R), int(e.G), int(e.B),
		illuminance, e.ActiveMotion,
	)
	if err != nil {
		return fmt.Errorf("inserting actuation log entry: %w", err)
	}
	return nil
}

// List returns entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	query := `SELECT id, device_id, at, trigger_kind, reason, r, g, b, illuminance, active_motion
		FROM actuation_log`
	var args []any
	if filter.DeviceID != "" {
		query += " WHERE device_id = ?"
		args = append(args, filter.DeviceID)
	}
	query += " ORDER BY at DESC, id LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actuation log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e           Entry
			at          string
			red, grn    int
			blu         int
			illuminance sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.DeviceID, &at, &e.Trigger, &e.Reason,
			&red, &grn, &blu, &illuminance, &e.ActiveMotion); err != nil {
			return nil, fmt.Errorf("scanning actuation log entry: %w", err)
		}

		t, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parsing actuation log timestamp %q: %w", at, err)
		}
		e.At = t
		e.R, e.G, e.B = uint8(red), uint8(grn), uint8(blu) //nolint:gosec // columns only ever hold 0-255
		if illuminance.Valid {
			v := illuminance.Float64
			e.Illuminance = &v
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actuation log: %w", err)
	}

	return entries, nil
}

// Prune deletes entries recorded before the given time and returns how many
// were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM actuation_log WHERE at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning actuation log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning actuation log: %w", err)
	}
	return n, nil
}
