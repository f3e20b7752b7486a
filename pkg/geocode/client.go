// Package geocode provides forward and reverse geocoding over the Google
// Geocoding API. Forward geocoding anchors user court suggestions that arrive
// with an address but no coordinate; reverse geocoding backfills addresses for
// provider results that arrive with only a coordinate.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Client geocodes addresses in both directions.
type Client interface {
	// Forward resolves a free-form address to a coordinate.
	Forward(ctx context.Context, address string) (*Result, error)

	// Reverse resolves a coordinate to a formatted address.
	Reverse(ctx context.Context, lat, lng float64) (*Result, error)
}

// Result holds the geocoding output.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Quality          string // "rooftop", "range", "centroid", "approximate"
	Matched          bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type geocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(apiKey string, opts ...Option) Client {
	g := &geocoder{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(25, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// geocodeResponse is the JSON response from the Google Geocoding API.
type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

type geocodeResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// Forward resolves a free-form address to a coordinate.
func (g *geocoder) Forward(ctx context.Context, address string) (*Result, error) {
	params := url.Values{
		"address": {address},
		"key":     {g.apiKey},
	}
	return g.fetch(ctx, params)
}

// Reverse resolves a coordinate to a formatted address.
func (g *geocoder) Reverse(ctx context.Context, lat, lng float64) (*Result, error) {
	params := url.Values{
		"latlng": {fmt.Sprintf("%f,%f", lat, lng)},
		"key":    {g.apiKey},
	}
	return g.fetch(ctx, params)
}

// fetch calls the geocoding API once, retrying a single time on a transient
// failure. The retry budget is deliberately tiny: geocoding sits on the
// latency path of user suggestions.
func (g *geocoder) fetch(ctx context.Context, params url.Values) (*Result, error) {
	result, err := g.fetchOnce(ctx, params)
	if err != nil && isRetryable(err) {
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "geocode: retry wait")
		case <-time.After(500 * time.Millisecond):
		}
		result, err = g.fetchOnce(ctx, params)
	}
	return result, err
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("geocode: api returned status %d", e.code)
}

func isRetryable(err error) bool {
	var se *statusError
	if eris.As(err, &se) {
		return apperr.IsTransientHTTPStatus(se.code)
	}
	return apperr.IsTransient(err)
}

func (g *geocoder) fetchOnce(ctx context.Context, params url.Values) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	reqURL := g.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrap(&statusError{code: resp.StatusCode}, "geocode: fetch")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var geoResp geocodeResponse
	if err := json.Unmarshal(body, &geoResp); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	if geoResp.Status != "OK" || len(geoResp.Results) == 0 {
		return &Result{Matched: false}, nil
	}

	first := geoResp.Results[0]
	return &Result{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
		Quality:          locationTypeToQuality(first.Geometry.LocationType),
		Matched:          true,
	}, nil
}

// locationTypeToQuality maps Google's location_type to our quality taxonomy.
func locationTypeToQuality(locType string) string {
	switch locType {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	default:
		return "approximate"
	}
}
