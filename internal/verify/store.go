package verify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/db"
)

// Store persists verification proposals.
type Store interface {
	Insert(ctx context.Context, p *Proposal) (string, error)
	Get(ctx context.Context, id string) (*Proposal, error)
	ListByCourt(ctx context.Context, courtID string) ([]Proposal, error)
	// Resolve transitions a pending proposal to a terminal status. Returns
	// false when the proposal was already resolved.
	Resolve(ctx context.Context, id string, status Status, moderatorID, note string) (bool, error)
	// HasApprovedVerification reports whether the court has at least one
	// approved correction or confirmation.
	HasApprovedVerification(ctx context.Context, courtID string) (bool, error)
}

const proposalColumns = `id, court_id, field, kind, old_value, new_value, note,
	submitter_id, status, moderator_id, decision_note, created_at, resolved_at`

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert stores a pending proposal and returns its ID.
func (s *PostgresStore) Insert(ctx context.Context, p *Proposal) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO verification_proposals
			(id, court_id, field, kind, old_value, new_value, note, submitter_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.CourtID, p.Field, string(p.Kind), p.OldValue, p.NewValue, p.Note,
		p.SubmitterID, string(StatusPending),
	)
	if err != nil {
		return "", eris.Wrap(err, "verify: insert proposal")
	}
	return p.ID, nil
}

// Get fetches one proposal by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Proposal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM verification_proposals WHERE id = $1`, id)

	p, err := scanProposal(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("proposal", id)
		}
		return nil, eris.Wrapf(err, "verify: get proposal %s", id)
	}
	return p, nil
}

// ListByCourt returns every proposal targeting a court, newest first.
func (s *PostgresStore) ListByCourt(ctx context.Context, courtID string) ([]Proposal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+proposalColumns+` FROM verification_proposals
		WHERE court_id = $1 ORDER BY created_at DESC`, courtID)
	if err != nil {
		return nil, eris.Wrapf(err, "verify: list proposals for court %s", courtID)
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, eris.Wrap(err, "verify: scan proposal")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Resolve transitions a pending proposal to approved or rejected. The status
// guard in the WHERE clause makes concurrent resolutions lose cleanly.
func (s *PostgresStore) Resolve(ctx context.Context, id string, status Status, moderatorID, note string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE verification_proposals SET
			status = $2,
			moderator_id = $3,
			decision_note = $4,
			resolved_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, string(status), moderatorID, note,
	)
	if err != nil {
		return false, eris.Wrapf(err, "verify: resolve proposal %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

// HasApprovedVerification reports whether any correction or confirmation has
// been approved for the court.
func (s *PostgresStore) HasApprovedVerification(ctx context.Context, courtID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM verification_proposals
			WHERE court_id = $1
				AND status = 'approved'
				AND kind IN ('correction', 'confirmation')
		)`, courtID,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "verify: check approved verifications for court %s", courtID)
	}
	return exists, nil
}

func scanProposal(row pgx.Row) (*Proposal, error) {
	var p Proposal
	var kind, status string
	err := row.Scan(
		&p.ID, &p.CourtID, &p.Field, &kind, &p.OldValue, &p.NewValue, &p.Note,
		&p.SubmitterID, &status, &p.ModeratorID, &p.DecisionNote, &p.CreatedAt, &p.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Kind = Kind(kind)
	p.Status = Status(status)
	return &p, nil
}
