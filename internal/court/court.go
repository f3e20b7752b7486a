// Package court defines the canonical court record and its store.
package court

import (
	"time"

	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// VerificationStatus tracks how much of a record has been confirmed by the
// verification workflow.
type VerificationStatus string

const (
	StatusUnverified        VerificationStatus = "unverified"
	StatusPartiallyVerified VerificationStatus = "partially_verified"
	StatusVerified          VerificationStatus = "verified"
)

// Provenance records where a canonical court originally came from.
type Provenance string

const (
	ProvenanceUserSuggested Provenance = "user_suggested"
	ProvenancePlaceSearch   Provenance = "place_search"
	ProvenanceSeed          Provenance = "seed"
)

// Court is a canonical court record. Descriptive fields other than name,
// address, and coordinate are pointers: nil means "unknown", distinct from an
// explicit value.
type Court struct {
	ID           string             `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Address      string             `json:"address" db:"address"`
	Point        geomatch.Point     `json:"point"`
	Sports       []string           `json:"sports" db:"sports"`
	Surface      *string            `json:"surface,omitempty" db:"surface"`
	CourtCount   *int               `json:"court_count,omitempty" db:"court_count"`
	Lighting     *bool              `json:"lighting,omitempty" db:"lighting"`
	Phone        *string            `json:"phone,omitempty" db:"phone"`
	Website      *string            `json:"website,omitempty" db:"website"`
	OpeningHours *string            `json:"opening_hours,omitempty" db:"opening_hours"`
	Status       VerificationStatus `json:"status" db:"status"`
	Provenance   Provenance         `json:"provenance" db:"provenance"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}

// Site returns the matcher view of the court.
func (c *Court) Site() geomatch.Site {
	return geomatch.Site{Name: c.Name, Point: c.Point}
}

// Candidate is an ephemeral court description produced by a discovery run or a
// suggestion. It is never persisted directly: it is merged, discarded, or
// promoted into a Court.
type Candidate struct {
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	Point        geomatch.Point `json:"point"`
	Sports       []string       `json:"sports"`
	Surface      *string        `json:"surface,omitempty"`
	CourtCount   *int           `json:"court_count,omitempty"`
	Lighting     *bool          `json:"lighting,omitempty"`
	Phone        *string        `json:"phone,omitempty"`
	Website      *string        `json:"website,omitempty"`
	OpeningHours *string        `json:"opening_hours,omitempty"`
	Provenance   Provenance     `json:"provenance"`
}

// Site returns the matcher view of the candidate.
func (c *Candidate) Site() geomatch.Site {
	return geomatch.Site{Name: c.Name, Point: c.Point}
}

// Malformed reports whether the candidate is missing the fields required for
// classification. Malformed candidates are dropped before dedup, never stored.
func (c *Candidate) Malformed() bool {
	return c.Name == "" || !c.Point.Valid() || (c.Point.Lat == 0 && c.Point.Lng == 0)
}

// Court converts the candidate into a court record for promotion.
func (c *Candidate) Court() *Court {
	return &Court{
		Name:         c.Name,
		Address:      c.Address,
		Point:        c.Point,
		Sports:       c.Sports,
		Surface:      c.Surface,
		CourtCount:   c.CourtCount,
		Lighting:     c.Lighting,
		Phone:        c.Phone,
		Website:      c.Website,
		OpeningHours: c.OpeningHours,
		Status:       StatusUnverified,
		Provenance:   c.Provenance,
	}
}

// VerifiableFields lists the descriptive fields the verification workflow can
// repair, in the order they are reported by the missing-fields view.
var VerifiableFields = []string{
	"surface", "court_count", "lighting", "phone", "website", "opening_hours",
}

// FieldValue returns the current value of a verifiable field, or nil when the
// field is unknown.
func (c *Court) FieldValue(field string) any {
	switch field {
	case "surface":
		if c.Surface == nil {
			return nil
		}
		return *c.Surface
	case "court_count":
		if c.CourtCount == nil {
			return nil
		}
		return *c.CourtCount
	case "lighting":
		if c.Lighting == nil {
			return nil
		}
		return *c.Lighting
	case "phone":
		if c.Phone == nil {
			return nil
		}
		return *c.Phone
	case "website":
		if c.Website == nil {
			return nil
		}
		return *c.Website
	case "opening_hours":
		if c.OpeningHours == nil {
			return nil
		}
		return *c.OpeningHours
	default:
		return nil
	}
}

// MissingFields returns the verifiable fields currently unknown on the court.
func (c *Court) MissingFields() []string {
	var missing []string
	for _, f := range VerifiableFields {
		if c.FieldValue(f) == nil {
			missing = append(missing, f)
		}
	}
	return missing
}

// NeedsVerification is the computed read-path check: true when any verifiable
// field is unknown or the record has not reached verified status. Computed on
// demand so it always reflects current field state.
func (c *Court) NeedsVerification() bool {
	return len(c.MissingFields()) > 0 || c.Status != StatusVerified
}
