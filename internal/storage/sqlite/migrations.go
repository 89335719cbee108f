package sqlite

// schema contains the database schema DDL.
const schema = `
-- Readings, kept in insertion order by seq
CREATE TABLE IF NOT EXISTS readings (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    systolic INTEGER NOT NULL,
    diastolic INTEGER NOT NULL,
    pulse INTEGER,
    notes TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    timestamp INTEGER NOT NULL,
    CHECK (systolic >= diastolic)
);
CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp);

-- Settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
