// Package geomatch implements pure geospatial and name matching used by the
// deduplication engine: great-circle distance, name normalization and
// similarity, and the two-signal duplicate classification.
package geomatch

import (
	"math"
	"strings"
	"unicode"
)

const (
	// earthRadiusKm is the mean Earth radius used by the haversine formula.
	earthRadiusKm = 6371.0

	// DegreesPerKM approximates latitude degrees per kilometer at mid-latitudes.
	DegreesPerKM = 1.0 / 111.0
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is within coordinate range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Site pairs a name with a location for duplicate classification.
type Site struct {
	Name  string
	Point Point
}

// Thresholds holds the duplicate-classification tunables.
type Thresholds struct {
	// MaxDistanceM is the maximum great-circle separation for two records to
	// be considered the same physical court.
	MaxDistanceM float64

	// MinNameSimilarity is the minimum normalized name similarity. Both the
	// distance and name signals are required: name-only matches across a city
	// and proximity-only matches at a multi-sport complex are not duplicates.
	MinNameSimilarity float64
}

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. Symmetric; zero for identical points.
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// IsDuplicate returns true when candidate and existing are within
// MaxDistanceM of each other and their normalized names are at least
// MinNameSimilarity similar.
func IsDuplicate(candidate, existing Site, t Thresholds) bool {
	if DistanceKm(candidate.Point, existing.Point)*1000 > t.MaxDistanceM {
		return false
	}
	return NameSimilarity(candidate.Name, existing.Name) >= t.MinNameSimilarity
}

// NormalizeName lowercases, strips punctuation, and collapses whitespace.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NameSimilarity computes similarity between two names after normalization.
// It takes the max of word-set Jaccard and character-bigram Dice so that both
// word-order differences and minor spelling variance score high.
func NameSimilarity(a, b string) float64 {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	jaccard := wordJaccard(na, nb)
	dice := bigramDice(na, nb)
	return math.Max(jaccard, dice)
}

// wordJaccard computes Jaccard similarity on word sets.
func wordJaccard(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}

	union := len(wordsA)
	for w := range wordsB {
		if !wordsA[w] {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// bigramDice computes the Dice coefficient over character bigrams, ignoring
// spaces so word boundaries do not dominate short names.
func bigramDice(a, b string) float64 {
	ba := bigrams(strings.ReplaceAll(a, " ", ""))
	bb := bigrams(strings.ReplaceAll(b, " ", ""))
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	overlap := 0
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			overlap += min(n, m)
		}
	}

	totalA := 0
	for _, n := range ba {
		totalA += n
	}
	totalB := 0
	for _, n := range bb {
		totalB += n
	}

	return 2 * float64(overlap) / float64(totalA+totalB)
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	grams := make(map[string]int, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// Cell returns the coarse grid cell containing p for the given cell size.
// Used to key the per-area advisory lock.
func Cell(p Point, cellKM float64) (int, int) {
	if cellKM <= 0 {
		cellKM = 10
	}
	cellDeg := cellKM * DegreesPerKM
	return int(math.Floor(p.Lat / cellDeg)), int(math.Floor(p.Lng / cellDeg))
}
