// Package seed imports court features from municipal parks-and-recreation
// shapefiles and promotes them into canonical records with seed provenance.
package seed

import (
	"context"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/dedupe"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// Result summarizes a seed import.
type Result struct {
	Read       int
	Skipped    int
	Inserted   int
	Duplicates int
}

// Importer reads shapefile features and runs them through the dedupe engine.
type Importer struct {
	store      court.Store
	thresholds geomatch.Thresholds
	sport      string
}

// NewImporter creates an Importer. sport is assigned to every feature the
// shapefile does not classify itself.
func NewImporter(store court.Store, t geomatch.Thresholds, sport string) *Importer {
	return &Importer{store: store, thresholds: t, sport: sport}
}

// Import parses the shapefile at path and promotes each point feature through
// classification. Features without a usable point geometry are skipped.
func (i *Importer) Import(ctx context.Context, path string) (*Result, error) {
	candidates, skipped, err := parseCandidates(path, i.sport)
	if err != nil {
		return nil, err
	}

	result := &Result{Read: len(candidates) + skipped, Skipped: skipped}

	// One court at a time: seed files are small and per-candidate promotion
	// reuses the insert-time duplicate re-check.
	for _, c := range candidates {
		promoted, err := dedupe.Promote(ctx, i.store, []court.Candidate{c}, i.thresholds)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: promote %q", c.Name)
		}
		result.Inserted += len(promoted.InsertedIDs)
		result.Duplicates += promoted.Reclassified
	}

	zap.L().Info("seed import complete",
		zap.String("path", path),
		zap.Int("read", result.Read),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// attributeNames are the shapefile columns we look for, lowercased. Municipal
// exports are inconsistent; we take the first present spelling.
var attributeNames = map[string][]string{
	"name":    {"name", "facility", "site_name"},
	"address": {"address", "addr", "location"},
	"sport":   {"sport", "type", "facil_type"},
	"count":   {"courts", "court_cnt", "num_courts"},
	"surface": {"surface", "surf_type"},
}

func parseCandidates(path, defaultSport string) ([]court.Candidate, int, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "seed: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for idx, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = idx
	}

	attr := func(kind string) func() string {
		return func() string {
			for _, name := range attributeNames[kind] {
				if idx, ok := fieldIdx[name]; ok {
					val := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
					if val != "" {
						return val
					}
				}
			}
			return ""
		}
	}
	nameOf, addressOf := attr("name"), attr("address")
	sportOf, countOf, surfaceOf := attr("sport"), attr("count"), attr("surface")

	var candidates []court.Candidate
	skipped := 0

	for reader.Next() {
		_, shape := reader.Shape()

		point, ok := shapePoint(shape)
		if !ok {
			skipped++
			continue
		}

		c := court.Candidate{
			Name:       nameOf(),
			Address:    addressOf(),
			Point:      geomatch.Point{Lat: point.Y(), Lng: point.X()},
			Provenance: court.ProvenanceSeed,
		}

		sport := strings.ToLower(sportOf())
		if sport == "" {
			sport = defaultSport
		}
		c.Sports = []string{sport}

		if raw := countOf(); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				c.CourtCount = &n
			}
		}
		if surface := strings.ToLower(surfaceOf()); surface != "" {
			c.Surface = &surface
		}

		if c.Malformed() {
			skipped++
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, skipped, nil
}

// shapePoint extracts a point location from a shapefile geometry. Polygon
// features (court outlines) collapse to their bounding-box centroid.
func shapePoint(shape shp.Shape) (*geom.Point, bool) {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), true
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), true
	case *shp.Polygon:
		box := s.BBox()
		return geom.NewPointFlat(geom.XY, []float64{
			(box.MinX + box.MaxX) / 2,
			(box.MinY + box.MaxY) / 2,
		}), true
	default:
		return nil, false
	}
}
