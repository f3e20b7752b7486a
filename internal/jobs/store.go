package jobs

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jdoseph/rateyourcourt-sub000/internal/db"
	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
)

// Store persists discovery job records. The in-memory queue is authoritative
// for scheduling; the table is the durable audit trail behind GET
// /discovery/jobs across restarts.
type Store interface {
	CreateJob(ctx context.Context, j *Job) error
	MarkActive(ctx context.Context, id string) error
	CompleteJob(ctx context.Context, id string, stats *discovery.Stats) error
	FailJob(ctx context.Context, id string, errMsg string) error
	PruneHistory(ctx context.Context, keep int, olderThan time.Duration) (int64, error)
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateJob inserts a waiting job record.
func (s *PostgresStore) CreateJob(ctx context.Context, j *Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO discovery_jobs (id, latitude, longitude, radius_m, sport, state, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		j.ID, j.Params.Point.Lat, j.Params.Point.Lng, j.Params.RadiusM, j.Params.Sport,
		string(StateWaiting), j.EnqueuedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "jobs: create job %s", j.ID)
	}
	return nil
}

// MarkActive records the waiting → active transition.
func (s *PostgresStore) MarkActive(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE discovery_jobs SET state = $2 WHERE id = $1`,
		id, string(StateActive),
	)
	if err != nil {
		return eris.Wrapf(err, "jobs: mark job %s active", id)
	}
	return nil
}

// CompleteJob marks a job completed with its run statistics.
func (s *PostgresStore) CompleteJob(ctx context.Context, id string, stats *discovery.Stats) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE discovery_jobs SET
			state = $2,
			processed = $3,
			new_courts = $4,
			duplicates = $5,
			completed_at = now()
		WHERE id = $1`,
		id, string(StateCompleted), stats.Processed, stats.New, stats.Duplicates,
	)
	if err != nil {
		return eris.Wrapf(err, "jobs: complete job %s", id)
	}
	return nil
}

// FailJob marks a job failed with an error message.
func (s *PostgresStore) FailJob(ctx context.Context, id string, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE discovery_jobs SET state = $2, error = $3, completed_at = now() WHERE id = $1`,
		id, string(StateFailed), errMsg,
	)
	if err != nil {
		return eris.Wrapf(err, "jobs: fail job %s", id)
	}
	return nil
}

// PruneHistory deletes terminal jobs beyond the retention window, always
// keeping the most recent `keep` records.
func (s *PostgresStore) PruneHistory(ctx context.Context, keep int, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM discovery_jobs
		WHERE state IN ('completed', 'failed')
			AND completed_at < now() - make_interval(secs => $1)
			AND id NOT IN (
				SELECT id FROM discovery_jobs
				WHERE state IN ('completed', 'failed')
				ORDER BY completed_at DESC
				LIMIT $2
			)`,
		olderThan.Seconds(), keep,
	)
	if err != nil {
		return 0, eris.Wrap(err, "jobs: prune history")
	}
	return tag.RowsAffected(), nil
}
