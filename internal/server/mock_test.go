package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
	"github.com/jdoseph/rateyourcourt-sub000/internal/verify"
)

// memCourts implements court.Store in memory.
type memCourts struct {
	mu     sync.Mutex
	courts map[string]*court.Court
}

func newMemCourts(seed ...court.Court) *memCourts {
	s := &memCourts{courts: make(map[string]*court.Court)}
	for i := range seed {
		c := seed[i]
		s.courts[c.ID] = &c
	}
	return s
}

func (m *memCourts) FindNear(_ context.Context, _ geomatch.Point, _ float64) ([]court.Court, error) {
	return nil, nil
}

func (m *memCourts) Insert(_ context.Context, c *court.Court) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = fmt.Sprintf("court-%d", len(m.courts)+1)
	}
	copied := *c
	m.courts[c.ID] = &copied
	return c.ID, nil
}

func (m *memCourts) UpdateField(_ context.Context, id, field string, value any) error {
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

func (m *memCourts) UpdateStatus(_ context.Context, id string, status court.VerificationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courts[id]
	if !ok {
		return apperr.NotFound("court", id)
	}
	c.Status = status
	return nil
}

func (m *memCourts) Get(_ context.Context, id string) (*court.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courts[id]
	if !ok {
		return nil, apperr.NotFound("court", id)
	}
	copied := *c
	return &copied, nil
}

// memProposals implements verify.Store in memory.
type memProposals struct {
	mu    sync.Mutex
	items map[string]*verify.Proposal
	seq   int
}

func newMemProposals() *memProposals {
	return &memProposals{items: make(map[string]*verify.Proposal)}
}

func (m *memProposals) Insert(_ context.Context, p *verify.Proposal) (string, error) {
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

func (m *memProposals) Get(_ context.Context, id string) (*verify.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("proposal", id)
	}
	copied := *p
	return &copied, nil
}

func (m *memProposals) ListByCourt(_ context.Context, courtID string) ([]verify.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []verify.Proposal
	for _, p := range m.items {
		if p.CourtID == courtID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProposals) Resolve(_ context.Context, id string, status verify.Status, moderatorID, note string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok || p.Status != verify.StatusPending {
		return false, nil
	}
	now := time.Now()
	p.Status = status
	p.ModeratorID = &moderatorID
	p.DecisionNote = &note
	p.ResolvedAt = &now
	return true, nil
}

func (m *memProposals) HasApprovedVerification(_ context.Context, courtID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.items {
		if p.CourtID == courtID && p.Status == verify.StatusApproved &&
			(p.Kind == verify.KindCorrection || p.Kind == verify.KindConfirmation) {
			return true, nil
		}
	}
	return false, nil
}

// stubRunner satisfies jobs.Runner.
type stubRunner struct{}

func (stubRunner) Run(_ context.Context, _ discovery.Request) (*discovery.Stats, error) {
	return &discovery.Stats{Processed: 1, New: 1}, nil
}

// stubSuggester satisfies Suggester.
type stubSuggester struct {
	result *discovery.SuggestResult
	err    error
}

func (s *stubSuggester) Suggest(_ context.Context, _ discovery.Suggestion) (*discovery.SuggestResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}
