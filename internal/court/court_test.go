package court

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func TestCandidateMalformed(t *testing.T) {
	valid := Candidate{Name: "Riverside Tennis Courts", Point: geomatch.Point{Lat: 33.749, Lng: -84.388}}
	assert.False(t, valid.Malformed())

	noName := Candidate{Point: geomatch.Point{Lat: 33.749, Lng: -84.388}}
	assert.True(t, noName.Malformed())

	noCoord := Candidate{Name: "Riverside Tennis Courts"}
	assert.True(t, noCoord.Malformed())

	outOfRange := Candidate{Name: "Bad", Point: geomatch.Point{Lat: 95, Lng: 0}}
	assert.True(t, outOfRange.Malformed())
}

func TestMissingFields(t *testing.T) {
	c := Court{
		Surface:  strPtr("clay"),
		Phone:    strPtr("555-0100"),
		Lighting: boolPtr(false),
	}

	assert.Equal(t, []string{"court_count", "website", "opening_hours"}, c.MissingFields())
}

func TestMissingFields_ExplicitValueIsNotUnknown(t *testing.T) {
	// A court explicitly recorded as unlit with zero extra courts is complete,
	// unlike one where those fields were never filled.
	c := Court{
		Surface:      strPtr("hard"),
		CourtCount:   intPtr(0),
		Lighting:     boolPtr(false),
		Phone:        strPtr("555-0100"),
		Website:      strPtr("https://example.com"),
		OpeningHours: strPtr("8-20"),
	}

	assert.Empty(t, c.MissingFields())
}

func TestNeedsVerification(t *testing.T) {
	complete := Court{
		Surface:      strPtr("hard"),
		CourtCount:   intPtr(4),
		Lighting:     boolPtr(true),
		Phone:        strPtr("555-0100"),
		Website:      strPtr("https://example.com"),
		OpeningHours: strPtr("8-20"),
		Status:       StatusVerified,
	}
	assert.False(t, complete.NeedsVerification())

	completeButUnverified := complete
	completeButUnverified.Status = StatusPartiallyVerified
	assert.True(t, completeButUnverified.NeedsVerification())

	missingField := complete
	missingField.Website = nil
	assert.True(t, missingField.NeedsVerification())
}

func TestCandidateCourt(t *testing.T) {
	cand := Candidate{
		Name:       "Riverside Tennis Courts",
		Address:    "100 River Rd",
		Point:      geomatch.Point{Lat: 33.749, Lng: -84.388},
		Sports:     []string{"tennis"},
		Surface:    strPtr("clay"),
		Provenance: ProvenancePlaceSearch,
	}

	c := cand.Court()
	assert.Equal(t, StatusUnverified, c.Status)
	assert.Equal(t, ProvenancePlaceSearch, c.Provenance)
	assert.Equal(t, cand.Point, c.Point)
	assert.Equal(t, cand.Surface, c.Surface)
	assert.Empty(t, c.ID)
}

func TestFieldValue(t *testing.T) {
	c := Court{CourtCount: intPtr(3)}

	assert.Equal(t, 3, c.FieldValue("court_count"))
	assert.Nil(t, c.FieldValue("surface"))
	assert.Nil(t, c.FieldValue("nonsense"))
}
