package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// Suggestion is a user-submitted court.
type Suggestion struct {
	Name    string         `json:"name"`
	Address string         `json:"address"`
	Point   geomatch.Point `json:"point"`
	Sport   string         `json:"sport"`
}

// SuggestResult reports the outcome of a suggestion.
type SuggestResult struct {
	CourtID   string `json:"court_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// Suggest runs a single user suggestion through the same dedupe pipeline as
// provider discovery. A suggestion without a coordinate is anchored by forward
// geocoding its address; one that still cannot be placed is rejected.
func (r *Runner) Suggest(ctx context.Context, s Suggestion) (*SuggestResult, error) {
	if s.Name == "" {
		return nil, apperr.Validationf("suggestion requires a name")
	}

	// A zero-value point means "no coordinate supplied", not a court at 0,0.
	point := s.Point
	if !point.Valid() || (point.Lat == 0 && point.Lng == 0) {
		if s.Address == "" {
			return nil, apperr.Validationf("suggestion requires a coordinate or an address")
		}
		if r.geocoder == nil {
			return nil, apperr.Validationf("suggestion has no coordinate and geocoding is not configured")
		}
		result, err := r.geocoder.Forward(ctx, s.Address)
		if err != nil {
			return nil, apperr.Upstream("geocode", err)
		}
		if !result.Matched {
			return nil, apperr.Validationf("address %q could not be resolved to a coordinate", s.Address)
		}
		point = geomatch.Point{Lat: result.Latitude, Lng: result.Longitude}
	}

	address := s.Address
	if address == "" && r.geocoder != nil {
		if result, err := r.geocoder.Reverse(ctx, point.Lat, point.Lng); err == nil && result.Matched {
			address = result.FormattedAddress
		} else if err != nil {
			zap.L().Debug("discovery: reverse geocode for suggestion failed", zap.Error(err))
		}
	}

	candidate := court.Candidate{
		Name:       s.Name,
		Address:    address,
		Point:      point,
		Sports:     []string{s.Sport},
		Provenance: court.ProvenanceUserSuggested,
	}

	stats, inserted, err := r.classifyAndPromote(ctx, []court.Candidate{candidate}, point, r.lookupPaddingM)
	if err != nil {
		return nil, err
	}

	if stats.New == 0 {
		return &SuggestResult{Duplicate: true}, nil
	}
	return &SuggestResult{CourtID: inserted[0]}, nil
}
