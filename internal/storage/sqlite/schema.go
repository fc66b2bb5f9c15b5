package sqlite

const schema = `
-- Politician profiles (record store). The engine reads this table, it never
-- writes it; the schema is created here only so local databases and tests
-- are self-contained.
CREATE TABLE IF NOT EXISTS politicians (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    state TEXT,
    positive_votes INTEGER,
    approval_rating REAL,
    ai_summary TEXT,
    adverse_cases INTEGER,
    updated_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_politicians_state ON politicians(state);
CREATE INDEX IF NOT EXISTS idx_politicians_updated_at ON politicians(updated_at);

-- Ordered per-profile vote time series (record store). The velocity detector
-- needs each profile's immediately preceding observation, not just the
-- latest value.
CREATE TABLE IF NOT EXISTS vote_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    politician_id INTEGER NOT NULL,
    positive_votes INTEGER NOT NULL,
    recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (politician_id) REFERENCES politicians(id)
);

CREATE INDEX IF NOT EXISTS idx_vote_history_politician ON vote_history(politician_id, recorded_at);

-- Vote-event audit trail (owned by the engine, append-only, never pruned
-- by this engine).
CREATE TABLE IF NOT EXISTS vote_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    politician_id INTEGER NOT NULL,
    previous_votes INTEGER NOT NULL,
    new_votes INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vote_events_created_at ON vote_events(created_at);
CREATE INDEX IF NOT EXISTS idx_vote_events_target ON vote_events(politician_id, created_at);

-- Snapshot ledger (owned by the engine, append-only, retention-pruned).
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    report TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);

-- Lightweight status flags maintained by external collaborators (job
-- scheduler, vector search, narrative backend) and read by the ops
-- detectors.
CREATE TABLE IF NOT EXISTS service_status (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
