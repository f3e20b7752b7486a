package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchNearby(t *testing.T) {
	var gotReq searchNearbyRequest
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "/places:searchNearby", r.URL.Path)

		json.NewEncoder(w).Encode(SearchNearbyResponse{ //nolint:errcheck
			Places: []Place{
				{
					ID:               "place-1",
					DisplayName:      DisplayName{Text: "Riverside Tennis Courts"},
					FormattedAddress: "100 River Rd, Atlanta, GA",
					Location:         LatLng{Latitude: 33.749, Longitude: -84.388},
					Rating:           4.5,
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))

	resp, err := c.SearchNearby(context.Background(), SearchNearbyRequest{
		Center:  LatLng{Latitude: 33.749, Longitude: -84.388},
		RadiusM: 2000,
		Sport:   "tennis",
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "Riverside Tennis Courts", resp.Places[0].DisplayName.Text)

	assert.Equal(t, "test-key", gotHeaders.Get("X-Goog-Api-Key"))
	assert.Contains(t, gotHeaders.Get("X-Goog-FieldMask"), "places.displayName")

	assert.Equal(t, []string{"tennis_court", "sports_complex"}, gotReq.IncludedTypes)
	assert.Equal(t, 2000.0, gotReq.LocationRestriction.Circle.Radius)
}

func TestSearchNearby_UnknownSportFallsBack(t *testing.T) {
	var gotReq searchNearbyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"places":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.SearchNearby(context.Background(), SearchNearbyRequest{Sport: "cricket"})

	require.NoError(t, err)
	assert.Equal(t, []string{"sports_complex"}, gotReq.IncludedTypes)
}

func TestSearchNearby_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.SearchNearby(context.Background(), SearchNearbyRequest{Sport: "tennis"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
