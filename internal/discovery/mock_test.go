package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
	"github.com/jdoseph/rateyourcourt-sub000/pkg/geocode"
	"github.com/jdoseph/rateyourcourt-sub000/pkg/places"
)

// mockPlaces implements places.Client.
type mockPlaces struct {
	mu       sync.Mutex
	response *places.SearchNearbyResponse
	err      error
	calls    int
}

func (m *mockPlaces) SearchNearby(_ context.Context, _ places.SearchNearbyRequest) (*places.SearchNearbyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockPlaces) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockGeocoder implements geocode.Client.
type mockGeocoder struct {
	forward    *geocode.Result
	forwardErr error
	reverse    *geocode.Result
}

func (m *mockGeocoder) Forward(_ context.Context, _ string) (*geocode.Result, error) {
	if m.forwardErr != nil {
		return nil, m.forwardErr
	}
	if m.forward == nil {
		return &geocode.Result{Matched: false}, nil
	}
	return m.forward, nil
}

func (m *mockGeocoder) Reverse(_ context.Context, _, _ float64) (*geocode.Result, error) {
	if m.reverse == nil {
		return &geocode.Result{Matched: false}, nil
	}
	return m.reverse, nil
}

// memStore implements court.Store in memory.
type memStore struct {
	mu     sync.Mutex
	courts []court.Court
}

func newMemStore(seed ...court.Court) *memStore {
	return &memStore{courts: seed}
}

func (m *memStore) FindNear(_ context.Context, p geomatch.Point, radiusM float64) ([]court.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var near []court.Court
	for _, c := range m.courts {
		if geomatch.DistanceKm(p, c.Point)*1000 <= radiusM {
			near = append(near, c)
		}
	}
	return near, nil
}

func (m *memStore) Insert(_ context.Context, c *court.Court) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = fmt.Sprintf("court-%d", len(m.courts)+1)
	}
	m.courts = append(m.courts, *c)
	return c.ID, nil
}

func (m *memStore) UpdateField(_ context.Context, id, field string, value any) error {
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status court.VerificationStatus) error {
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*court.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.courts {
		if m.courts[i].ID == id {
			c := m.courts[i]
			return &c, nil
		}
	}
	return nil, apperr.NotFound("court", id)
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.courts)
}
