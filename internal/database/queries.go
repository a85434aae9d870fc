package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns the zero time if parsing fails.
func parseTimestamp(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}

	// RFC3339 first (with timezone), then SQLite's datetime('now') format
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return t
		}
	}

	return time.Time{}
}

// isUniqueViolation checks for a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// scanSpec scans one registry row from a *sql.Row or *sql.Rows.
func scanSpec(scan func(dest ...any) error) (*WeekSpecRecord, error) {
	var rec WeekSpecRecord
	var description sql.NullString
	var preset int
	var createdAt, updatedAt sql.NullString

	err := scan(
		&rec.ID,
		&rec.Name,
		&rec.FirstDay,
		&rec.MinDays,
		&description,
		&preset,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		rec.Description = &description.String
	}
	rec.Preset = preset == 1
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.UpdatedAt = parseTimestamp(updatedAt)

	return &rec, nil
}

// =============================================================================
// Specification Registry Queries
// =============================================================================

const specColumns = `id, name, first_day, min_days, description, preset, created_at, updated_at`

// GetSpec retrieves a week rule by registry name.
// Returns ErrNotFound if the name doesn't exist.
//
// This is the hot-path query, backing every calculation request that names a
// stored rule.
func (db *DB) GetSpec(ctx context.Context, name string) (*WeekSpecRecord, error) {
	query := `SELECT ` + specColumns + ` FROM week_specifications WHERE name = ?`

	rec, err := scanSpec(db.QueryRowContext(ctx, query, name).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query spec by name: %w", err)
	}

	return rec, nil
}

// ListSpecs retrieves all registered week rules, presets first, then by name.
func (db *DB) ListSpecs(ctx context.Context) ([]WeekSpecRecord, error) {
	query := `SELECT ` + specColumns + ` FROM week_specifications ORDER BY preset DESC, name ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query specs: %w", err)
	}
	defer rows.Close()

	var specs []WeekSpecRecord
	for rows.Next() {
		rec, err := scanSpec(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan spec row: %w", err)
		}
		specs = append(specs, *rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spec rows: %w", err)
	}

	return specs, nil
}

// CreateSpec inserts a new named week rule.
// Returns ErrDuplicate if the name is already taken.
//
// The record's parameters must already have passed week.New validation;
// the schema CHECK constraints are a backstop, not the primary gate.
func (db *DB) CreateSpec(ctx context.Context, rec *WeekSpecRecord) error {
	query := `
		INSERT INTO week_specifications (name, first_day, min_days, description, preset)
		VALUES (?, ?, ?, ?, 0)
	`

	result, err := db.ExecContext(ctx, query,
		rec.Name,
		rec.FirstDay,
		rec.MinDays,
		rec.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert spec: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted spec id: %w", err)
	}
	rec.ID = id
	rec.Preset = false

	return nil
}

// DeleteSpec removes a named week rule.
// Returns ErrNotFound if the name doesn't exist and ErrPresetImmutable if it
// names a seeded preset.
func (db *DB) DeleteSpec(ctx context.Context, name string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM week_specifications WHERE name = ? AND preset = 0`, name)
	if err != nil {
		return fmt.Errorf("delete spec: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing deleted: either the name is unknown or it is a preset.
	var preset int
	err = db.QueryRowContext(ctx,
		`SELECT preset FROM week_specifications WHERE name = ?`, name).Scan(&preset)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check spec existence: %w", err)
	}

	return ErrPresetImmutable
}

// CountSpecs returns the number of registered rules.
// Used by the health/stats surface.
func (db *DB) CountSpecs(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM week_specifications`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count specs: %w", err)
	}
	return count, nil
}
