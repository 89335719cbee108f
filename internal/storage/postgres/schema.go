package postgres

const schema = `
CREATE TABLE IF NOT EXISTS readings (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    systolic INTEGER NOT NULL,
    diastolic INTEGER NOT NULL,
    pulse INTEGER,
    notes TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    taken_at_ms BIGINT NOT NULL,
    CONSTRAINT readings_systolic_gte_diastolic CHECK (systolic >= diastolic)
);
CREATE INDEX IF NOT EXISTS idx_readings_taken_at ON readings(taken_at_ms);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
