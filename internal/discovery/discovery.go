// Package discovery runs court discovery: it queries the place-search
// provider for candidate courts around a coordinate, deduplicates them against
// the canonical store, and promotes the survivors.
package discovery

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/cache"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/dedupe"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
	"github.com/jdoseph/rateyourcourt-sub000/pkg/geocode"
	"github.com/jdoseph/rateyourcourt-sub000/pkg/places"
)

// Request describes one discovery run.
type Request struct {
	Point   geomatch.Point `json:"point"`
	RadiusM float64        `json:"radius_m"`
	Sport   string         `json:"sport"`
}

// Stats summarizes a discovery run.
type Stats struct {
	Processed  int  `json:"processed"`
	New        int  `json:"new"`
	Duplicates int  `json:"duplicates"`
	Dropped    int  `json:"dropped"`
	Filled     int  `json:"filled"`
	CacheHit   bool `json:"cache_hit"`
}

// payload is the cached representation of a completed run.
type payload struct {
	Stats       Stats     `json:"stats"`
	InsertedIDs []string  `json:"inserted_ids"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Runner executes discovery runs.
type Runner struct {
	store      court.Store
	places     places.Client
	geocoder   geocode.Client
	cache      *cache.Cache
	thresholds geomatch.Thresholds

	// lookupPaddingM widens the canonical-store proximity query beyond the
	// search radius so courts just outside it still participate in dedup.
	lookupPaddingM float64
}

// NewRunner creates a Runner. geocoder may be nil; suggestions without a
// coordinate are then rejected instead of forward-geocoded.
func NewRunner(store court.Store, pc places.Client, geocoder geocode.Client, c *cache.Cache, t geomatch.Thresholds, lookupPaddingM float64) *Runner {
	if lookupPaddingM <= 0 {
		lookupPaddingM = t.MaxDistanceM
	}
	return &Runner{
		store:          store,
		places:         pc,
		geocoder:       geocoder,
		cache:          c,
		thresholds:     t,
		lookupPaddingM: lookupPaddingM,
	}
}

// Run executes one discovery run. A fresh cached result short-circuits the
// provider call entirely.
func (r *Runner) Run(ctx context.Context, req Request) (*Stats, error) {
	key := cache.Key{Point: req.Point, RadiusM: req.RadiusM, Sport: req.Sport}

	if raw, hit, err := r.cache.Get(ctx, key); err != nil {
		zap.L().Warn("discovery: cache lookup failed, continuing without cache", zap.Error(err))
	} else if hit {
		var cached payload
		if decodeErr := json.Unmarshal(raw, &cached); decodeErr != nil {
			zap.L().Warn("discovery: discarding undecodable cache entry", zap.Error(decodeErr))
		} else {
			stats := cached.Stats
			stats.CacheHit = true
			return &stats, nil
		}
	}

	resp, err := r.places.SearchNearby(ctx, places.SearchNearbyRequest{
		Center:  places.LatLng{Latitude: req.Point.Lat, Longitude: req.Point.Lng},
		RadiusM: req.RadiusM,
		Sport:   req.Sport,
	})
	if err != nil {
		return nil, apperr.Upstream("places", err)
	}

	candidates := candidatesFromPlaces(resp.Places, req.Sport)

	stats, inserted, err := r.classifyAndPromote(ctx, candidates, req.Point, req.RadiusM)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload{Stats: *stats, InsertedIDs: inserted, FetchedAt: time.Now()})
	if err != nil {
		return nil, eris.Wrap(err, "discovery: marshal cache payload")
	}
	if err := r.cache.Put(ctx, key, body); err != nil {
		zap.L().Warn("discovery: cache store failed", zap.Error(err))
	}

	zap.L().Info("discovery run complete",
		zap.Float64("lat", req.Point.Lat),
		zap.Float64("lng", req.Point.Lng),
		zap.String("sport", req.Sport),
		zap.Int("processed", stats.Processed),
		zap.Int("new", stats.New),
		zap.Int("duplicates", stats.Duplicates),
	)
	return stats, nil
}

// classifyAndPromote runs the shared dedupe pipeline for a batch of candidates.
func (r *Runner) classifyAndPromote(ctx context.Context, candidates []court.Candidate, center geomatch.Point, radiusM float64) (*Stats, []string, error) {
	existing, err := r.store.FindNear(ctx, center, radiusM+r.lookupPaddingM)
	if err != nil {
		return nil, nil, eris.Wrap(err, "discovery: load nearby courts")
	}

	classified := dedupe.Classify(candidates, existing, r.thresholds)

	promoted, err := dedupe.Promote(ctx, r.store, classified.New, r.thresholds)
	if err != nil {
		return nil, nil, eris.Wrap(err, "discovery: promote new courts")
	}

	filled := dedupe.ApplyFills(ctx, r.store, classified.FieldFills)

	return &Stats{
		Processed:  classified.Total,
		New:        len(promoted.InsertedIDs),
		Duplicates: classified.Duplicates + promoted.Reclassified,
		Dropped:    classified.Dropped,
		Filled:     filled,
	}, promoted.InsertedIDs, nil
}

// candidatesFromPlaces converts provider places into candidates.
func candidatesFromPlaces(list []places.Place, sport string) []court.Candidate {
	candidates := make([]court.Candidate, 0, len(list))
	for _, p := range list {
		c := court.Candidate{
			Name:       p.DisplayName.Text,
			Address:    p.FormattedAddress,
			Point:      geomatch.Point{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
			Sports:     []string{sport},
			Provenance: court.ProvenancePlaceSearch,
		}
		if p.NationalPhoneNumber != "" {
			phone := p.NationalPhoneNumber
			c.Phone = &phone
		}
		if p.WebsiteURI != "" {
			website := p.WebsiteURI
			c.Website = &website
		}
		if len(p.RegularOpeningHours.WeekdayDescriptions) > 0 {
			hours := strings.Join(p.RegularOpeningHours.WeekdayDescriptions, "; ")
			c.OpeningHours = &hours
		}
		candidates = append(candidates, c)
	}
	return candidates
}
