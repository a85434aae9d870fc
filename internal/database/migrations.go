package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
// Each migration should be idempotent (safe to run multiple times).
var migrationsSQL = map[int]string{
	1: migrationV1SpecificationRegistry,
}

// migrationV1SpecificationRegistry creates the registry schema and seeds the
// built-in rules.
//
// Design notes:
//
//  1. ONE ROW PER RULE
//     A week rule is fully described by two small integers. The table exists
//     so deployments can name rules ("french-theater") and add their own
//     without a code change; the algorithm itself never touches the database.
//
//  2. WEEKDAYS AS INTEGERS
//     first_day uses Go's time.Weekday numbering (0=Sunday .. 6=Saturday).
//     The CHECK constraints mirror the constructor validation in the week
//     package so bad rows cannot enter through any path.
//
//  3. SEEDED PRESETS
//     iso, french-theater and sunday-start are inserted here with preset=1
//     and are protected from deletion at the query layer. INSERT OR IGNORE
//     keeps the migration idempotent.
const migrationV1SpecificationRegistry = `
-- Migration 001: week specification registry

CREATE TABLE IF NOT EXISTS week_specifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Registry name used in API requests, e.g. "iso", "french-theater"
    name TEXT NOT NULL UNIQUE,

    -- First day of the week: 0=Sunday .. 6=Saturday (time.Weekday numbering)
    first_day INTEGER NOT NULL CHECK (first_day BETWEEN 0 AND 6),

    -- Minimum days of a week inside a year for the year to own it
    min_days INTEGER NOT NULL CHECK (min_days BETWEEN 1 AND 7),

    -- Optional human-readable description
    description TEXT,

    -- Seeded presets are protected from deletion
    preset INTEGER NOT NULL DEFAULT 0 CHECK (preset IN (0, 1)),

    -- Timestamps for auditing
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- The only lookup in the hot path: rule by name
CREATE INDEX IF NOT EXISTS idx_week_specifications_name
    ON week_specifications(name);

-- Built-in rules
INSERT OR IGNORE INTO week_specifications (name, first_day, min_days, description, preset) VALUES
    ('iso',            1, 4, 'ISO 8601: weeks start on Monday, first week holds at least 4 days', 1),
    ('french-theater', 3, 4, 'French theatrical releases: weeks start on Wednesday, minimum 4 days', 1),
    ('sunday-start',   0, 1, 'Weeks start on Sunday, the week containing January 1 is week 1', 1);
`
