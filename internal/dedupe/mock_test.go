package dedupe

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// memStore implements court.Store in memory for testing.
type memStore struct {
	mu      sync.Mutex
	courts  []court.Court
	updates map[string]map[string]any
}

func newMemStore(seed ...court.Court) *memStore {
	return &memStore{courts: seed, updates: make(map[string]map[string]any)}
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
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.courts {
		if m.courts[i].ID == id {
			if m.updates[id] == nil {
				m.updates[id] = make(map[string]any)
			}
			m.updates[id][field] = value
			return nil
		}
	}
	return apperr.NotFound("court", id)
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status court.VerificationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.courts {
		if m.courts[i].ID == id {
			m.courts[i].Status = status
			return nil
		}
	}
	return apperr.NotFound("court", id)
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
