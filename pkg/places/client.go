// Package places provides the place-search provider client used to discover
// candidate courts near a location.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs place-search operations.
type Client interface {
	SearchNearby(ctx context.Context, req SearchNearbyRequest) (*SearchNearbyResponse, error)
}

// LatLng is a provider coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchNearbyRequest describes a nearby search for courts of one sport.
type SearchNearbyRequest struct {
	Center  LatLng
	RadiusM float64
	Sport   string
}

// SearchNearbyResponse is the response from a nearby search.
type SearchNearbyResponse struct {
	Places []Place `json:"places"`
}

// Place represents a place returned by the provider.
type Place struct {
	ID                  string       `json:"id"`
	DisplayName         DisplayName  `json:"displayName"`
	FormattedAddress    string       `json:"formattedAddress"`
	Location            LatLng       `json:"location"`
	Rating              float64      `json:"rating"`
	NationalPhoneNumber string       `json:"nationalPhoneNumber"`
	WebsiteURI          string       `json:"websiteUri"`
	RegularOpeningHours OpeningHours `json:"regularOpeningHours"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// OpeningHours holds the provider's weekly schedule description.
type OpeningHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for provider calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a place-search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchNearbyRequest struct {
	IncludedTypes       []string            `json:"includedTypes"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
	MaxResultCount      int                 `json:"maxResultCount"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// sportTypes maps a sport to the provider's place types.
var sportTypes = map[string][]string{
	"tennis":     {"tennis_court", "sports_complex"},
	"basketball": {"basketball_court", "sports_complex"},
	"pickleball": {"sports_complex", "park"},
	"volleyball": {"sports_complex", "park"},
	"badminton":  {"sports_complex"},
	"squash":     {"sports_complex"},
}

// SearchNearby searches for courts of the given sport within the radius.
func (c *httpClient) SearchNearby(ctx context.Context, req SearchNearbyRequest) (*SearchNearbyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit wait")
	}

	types, ok := sportTypes[req.Sport]
	if !ok {
		types = []string{"sports_complex"}
	}

	body, err := json.Marshal(searchNearbyRequest{
		IncludedTypes: types,
		LocationRestriction: locationRestriction{
			Circle: circle{Center: req.Center, Radius: req.RadiusM},
		},
		MaxResultCount: 20,
	})
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchNearby", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask",
		"places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.nationalPhoneNumber,places.websiteUri,places.regularOpeningHours")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchNearbyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	return &result, nil
}
