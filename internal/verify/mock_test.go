package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// memCourtStore implements court.Store with real field updates.
type memCourtStore struct {
	mu     sync.Mutex
	courts map[string]*court.Court
}

func newMemCourtStore(seed ...court.Court) *memCourtStore {
	s := &memCourtStore{courts: make(map[string]*court.Court)}
	for i := range seed {
		c := seed[i]
		s.courts[c.ID] = &c
	}
	return s
}

func (m *memCourtStore) FindNear(_ context.Context, _ geomatch.Point, _ float64) ([]court.Court, error) {
	return nil, nil
}

func (m *memCourtStore) Insert(_ context.Context, c *court.Court) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = fmt.Sprintf("court-%d", len(m.courts)+1)
	}
	copied := *c
	m.courts[c.ID] = &copied
	return c.ID, nil
}

func (m *memCourtStore) UpdateField(_ context.Context, id, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courts[id]
	if !ok {
		return apperr.NotFound("court", id)
	}
	switch field {
	case "surface":
		v := value.(string)
		c.Surface = &v
	case "court_count":
		v := value.(int)
		c.CourtCount = &v
	case "lighting":
		v := value.(bool)
		c.Lighting = &v
	case "phone":
		v := value.(string)
		c.Phone = &v
	case "website":
		v := value.(string)
		c.Website = &v
	case "opening_hours":
		v := value.(string)
		c.OpeningHours = &v
	}
	return nil
}

func (m *memCourtStore) UpdateStatus(_ context.Context, id string, status court.VerificationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courts[id]
	if !ok {
		return apperr.NotFound("court", id)
	}
	c.Status = status
	return nil
}

func (m *memCourtStore) Get(_ context.Context, id string) (*court.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courts[id]
	if !ok {
		return nil, apperr.NotFound("court", id)
	}
	copied := *c
	return &copied, nil
}

// memProposalStore implements Store in memory.
type memProposalStore struct {
	mu    sync.Mutex
	items map[string]*Proposal
	seq   int
}

func newMemProposalStore() *memProposalStore {
	return &memProposalStore{items: make(map[string]*Proposal)}
}

func (m *memProposalStore) Insert(_ context.Context, p *Proposal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("prop-%d", m.seq)
	}
	p.CreatedAt = time.Now()
	copied := *p
	m.items[p.ID] = &copied
	return p.ID, nil
}

func (m *memProposalStore) Get(_ context.Context, id string) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("proposal", id)
	}
	copied := *p
	return &copied, nil
}

func (m *memProposalStore) ListByCourt(_ context.Context, courtID string) ([]Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Proposal
	for _, p := range m.items {
		if p.CourtID == courtID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProposalStore) Resolve(_ context.Context, id string, status Status, moderatorID, note string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok || p.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	p.Status = status
	p.ModeratorID = &moderatorID
	p.DecisionNote = &note
	p.ResolvedAt = &now
	return true, nil
}

func (m *memProposalStore) HasApprovedVerification(_ context.Context, courtID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.items {
		if p.CourtID == courtID && p.Status == StatusApproved &&
			(p.Kind == KindCorrection || p.Kind == KindConfirmation) {
			return true, nil
		}
	}
	return false, nil
}
