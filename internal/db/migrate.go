package db

import (
	"context"

	"github.com/rotisserie/eris"
)

const migration = `
CREATE TABLE IF NOT EXISTS courts (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name          TEXT NOT NULL,
	address       TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	sports        TEXT[] NOT NULL DEFAULT '{}',
	surface       TEXT,
	court_count   INT,
	lighting      BOOLEAN,
	phone         TEXT,
	website       TEXT,
	opening_hours TEXT,
	status        TEXT NOT NULL DEFAULT 'unverified',
	provenance    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_courts_lat_lng ON courts(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_courts_status ON courts(status);

CREATE TABLE IF NOT EXISTS discovery_jobs (
	id           TEXT PRIMARY KEY,
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	radius_m     DOUBLE PRECISION NOT NULL,
	sport        TEXT NOT NULL,
	state        TEXT NOT NULL DEFAULT 'waiting',
	processed    INT,
	new_courts   INT,
	duplicates   INT,
	error        TEXT,
	enqueued_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_discovery_jobs_state ON discovery_jobs(state);
CREATE INDEX IF NOT EXISTS idx_discovery_jobs_enqueued ON discovery_jobs(enqueued_at DESC);

CREATE TABLE IF NOT EXISTS discovery_cache (
	query_hash TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_discovery_cache_fetched ON discovery_cache(fetched_at);

CREATE TABLE IF NOT EXISTS verification_proposals (
	id             TEXT PRIMARY KEY,
	court_id       TEXT NOT NULL REFERENCES courts(id),
	field          TEXT NOT NULL,
	kind           TEXT NOT NULL,
	old_value      TEXT,
	new_value      TEXT NOT NULL,
	note           TEXT,
	submitter_id   TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	moderator_id   TEXT,
	decision_note  TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	resolved_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_proposals_court ON verification_proposals(court_id);
CREATE INDEX IF NOT EXISTS idx_proposals_status ON verification_proposals(status);
`

// Migrate creates all pipeline tables if they do not exist.
func Migrate(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, migration); err != nil {
		return eris.Wrap(err, "db: migrate")
	}
	return nil
}
