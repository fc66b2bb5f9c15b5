package postgres

// Engine-owned support tables. The politicians and vote_history tables
// belong to the platform's own migrations; only the trail, ledger, and
// status tables are created here.
const schema = `
CREATE TABLE IF NOT EXISTS vote_events (
    id BIGSERIAL PRIMARY KEY,
    politician_id BIGINT NOT NULL,
    previous_votes INTEGER NOT NULL,
    new_votes INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vote_events_created_at ON vote_events(created_at);
CREATE INDEX IF NOT EXISTS idx_vote_events_target ON vote_events(politician_id, created_at);

CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    report JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);

CREATE TABLE IF NOT EXISTS service_status (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
