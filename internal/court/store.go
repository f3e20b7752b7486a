package court

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/db"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// Store defines persistence operations for canonical court records.
type Store interface {
	FindNear(ctx context.Context, p geomatch.Point, radiusM float64) ([]Court, error)
	Insert(ctx context.Context, c *Court) (string, error)
	UpdateField(ctx context.Context, id, field string, value any) error
	UpdateStatus(ctx context.Context, id string, status VerificationStatus) error
	Get(ctx context.Context, id string) (*Court, error)
}

// fieldColumns is the allowlist of verifiable field names to column names.
// Prevents SQL injection through the field parameter of UpdateField.
var fieldColumns = map[string]string{
	"surface":       "surface",
	"court_count":   "court_count",
	"lighting":      "lighting",
	"phone":         "phone",
	"website":       "website",
	"opening_hours": "opening_hours",
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const courtColumns = `id, name, address, latitude, longitude, sports,
	surface, court_count, lighting, phone, website, opening_hours,
	status, provenance, created_at`

// FindNear returns courts within radiusM of p. The SQL narrows to a bounding
// box on the lat/lng index; exact great-circle filtering happens here so the
// query stays portable.
func (s *PostgresStore) FindNear(ctx context.Context, p geomatch.Point, radiusM float64) ([]Court, error) {
	latDelta := radiusM / 1000 * geomatch.DegreesPerKM
	lngDelta := latDelta / math.Cos(p.Lat*math.Pi/180)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM courts
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
		ORDER BY created_at`, courtColumns),
		p.Lat-latDelta, p.Lat+latDelta, p.Lng-lngDelta, p.Lng+lngDelta,
	)
	if err != nil {
		return nil, eris.Wrap(err, "court: find near")
	}
	defer rows.Close()

	all, err := scanCourts(rows)
	if err != nil {
		return nil, err
	}

	var near []Court
	for _, c := range all {
		if geomatch.DistanceKm(p, c.Point)*1000 <= radiusM {
			near = append(near, c)
		}
	}
	return near, nil
}

// Insert persists a new canonical court and returns its id. A candidate
// without a valid coordinate is rejected, not stored as a partial record.
func (s *PostgresStore) Insert(ctx context.Context, c *Court) (string, error) {
	if !c.Point.Valid() || (c.Point.Lat == 0 && c.Point.Lng == 0) {
		return "", apperr.Validationf("court: record %q has no geocoordinate", c.Name)
	}

	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO courts (id, name, address, latitude, longitude, sports,
			surface, court_count, lighting, phone, website, opening_hours,
			status, provenance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, c.Name, c.Address, c.Point.Lat, c.Point.Lng, c.Sports,
		c.Surface, c.CourtCount, c.Lighting, c.Phone, c.Website, c.OpeningHours,
		c.Status, c.Provenance,
	)
	if err != nil {
		return "", eris.Wrapf(err, "court: insert %q", c.Name)
	}

	c.ID = id
	return id, nil
}

// UpdateField writes a single verifiable field. The field name must be in the
// allowlist; a nil value records the field as unknown.
func (s *PostgresStore) UpdateField(ctx context.Context, id, field string, value any) error {
	col, ok := fieldColumns[field]
	if !ok {
		return apperr.Validationf("court: unknown field %q", field)
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE courts SET %s = $2 WHERE id = $1`, col),
		id, value,
	)
	if err != nil {
		return eris.Wrapf(err, "court: update %s for %s", field, id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("court", id)
	}
	return nil
}

// UpdateStatus sets the verification status of a court.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status VerificationStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE courts SET status = $2 WHERE id = $1`, id, status,
	)
	if err != nil {
		return eris.Wrapf(err, "court: update status for %s", id)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("court", id)
	}
	return nil
}

// Get returns a court by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Court, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM courts WHERE id = $1`, courtColumns), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "court: get %s", id)
	}
	defer rows.Close()

	courts, err := scanCourts(rows)
	if err != nil {
		return nil, err
	}
	if len(courts) == 0 {
		return nil, apperr.NotFound("court", id)
	}
	return &courts[0], nil
}

func scanCourts(rows pgx.Rows) ([]Court, error) {
	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Address, &c.Point.Lat, &c.Point.Lng, &c.Sports,
			&c.Surface, &c.CourtCount, &c.Lighting, &c.Phone, &c.Website, &c.OpeningHours,
			&c.Status, &c.Provenance, &c.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "court: scan record")
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
