package verify

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
)

// Decision is a moderator's verdict on a proposal.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// SubmitInput is the request to open a proposal.
type SubmitInput struct {
	CourtID     string `json:"court_id"`
	Field       string `json:"field"`
	Kind        Kind   `json:"kind"`
	NewValue    string `json:"new_value"`
	Note        string `json:"note"`
	SubmitterID string `json:"-"`
}

// ReviewInput is a moderator's adjudication request.
type ReviewInput struct {
	ProposalID  string   `json:"-"`
	Decision    Decision `json:"decision"`
	Note        string   `json:"note"`
	ModeratorID string   `json:"-"`
}

// Service drives the proposal lifecycle.
type Service struct {
	courts    court.Store
	proposals Store

	// courtMu serializes approvals per court so two simultaneous approvals on
	// the same field cannot lose an update.
	mu      sync.Mutex
	courtMu map[string]*sync.Mutex
}

// NewService creates a Service.
func NewService(courts court.Store, proposals Store) *Service {
	return &Service{
		courts:    courts,
		proposals: proposals,
		courtMu:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockCourt(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.courtMu[id]
	if !ok {
		mu = &sync.Mutex{}
		s.courtMu[id] = mu
	}
	return mu
}

// Submit validates and opens a pending proposal. The proposal kind must be
// consistent with the field's current nullness: an addition targets an
// unknown field, a correction or confirmation targets a known one. Multiple
// pending proposals on the same field are allowed and resolved independently.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Proposal, error) {
	if !in.Kind.valid() {
		return nil, apperr.Validationf("unknown proposal kind %q", in.Kind)
	}
	if !slices.Contains(court.VerifiableFields, in.Field) {
		return nil, apperr.Validationf("field %q is not verifiable", in.Field)
	}
	if in.NewValue == "" {
		return nil, apperr.Validationf("proposal requires a value")
	}
	if _, err := parseFieldValue(in.Field, in.NewValue); err != nil {
		return nil, err
	}

	target, err := s.courts.Get(ctx, in.CourtID)
	if err != nil {
		return nil, err
	}

	current := target.FieldValue(in.Field)
	switch in.Kind {
	case KindAddition:
		if current != nil {
			return nil, apperr.Conflictf("field %q already has a value; submit a correction instead", in.Field)
		}
	case KindCorrection, KindConfirmation:
		if current == nil {
			return nil, apperr.Validationf("field %q is unknown; submit an addition instead", in.Field)
		}
	}

	p := &Proposal{
		CourtID:     in.CourtID,
		Field:       in.Field,
		Kind:        in.Kind,
		NewValue:    in.NewValue,
		Note:        in.Note,
		SubmitterID: in.SubmitterID,
		Status:      StatusPending,
	}
	if current != nil {
		snapshot := fmt.Sprintf("%v", current)
		p.OldValue = &snapshot
	}

	if _, err := s.proposals.Insert(ctx, p); err != nil {
		return nil, err
	}

	zap.L().Info("verification proposal submitted",
		zap.String("proposal_id", p.ID),
		zap.String("court_id", p.CourtID),
		zap.String("field", p.Field),
		zap.String("kind", string(p.Kind)),
	)
	return p, nil
}

// Review resolves a pending proposal. Moderator-only. On approval the
// proposed value is committed into the court and the court's verification
// status is recomputed; last-approved-wins when proposals compete for the
// same field. A resolved proposal cannot be resolved again.
func (s *Service) Review(ctx context.Context, role string, in ReviewInput) (*court.Court, error) {
	if role != "moderator" && role != "admin" {
		return nil, apperr.Authorizationf("proposal review requires moderator role")
	}
	if in.Decision != DecisionApprove && in.Decision != DecisionReject {
		return nil, apperr.Validationf("unknown decision %q", in.Decision)
	}

	p, err := s.proposals.Get(ctx, in.ProposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, apperr.Conflictf("proposal %s is already %s", p.ID, p.Status)
	}

	mu := s.lockCourt(p.CourtID)
	mu.Lock()
	defer mu.Unlock()

	status := StatusRejected
	if in.Decision == DecisionApprove {
		status = StatusApproved
	}

	resolved, err := s.proposals.Resolve(ctx, p.ID, status, in.ModeratorID, in.Note)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, apperr.Conflictf("proposal %s is already resolved", p.ID)
	}

	if in.Decision == DecisionApprove {
		if err := s.apply(ctx, p); err != nil {
			return nil, err
		}
	}

	zap.L().Info("verification proposal resolved",
		zap.String("proposal_id", p.ID),
		zap.String("decision", string(in.Decision)),
		zap.String("moderator_id", in.ModeratorID),
	)
	return s.courts.Get(ctx, p.CourtID)
}

// apply commits an approved value and recomputes the court's verification
// status.
func (s *Service) apply(ctx context.Context, p *Proposal) error {
	value, err := parseFieldValue(p.Field, p.NewValue)
	if err != nil {
		return err
	}
	if err := s.courts.UpdateField(ctx, p.CourtID, p.Field, value); err != nil {
		return err
	}

	updated, err := s.courts.Get(ctx, p.CourtID)
	if err != nil {
		return err
	}

	next := updated.Status
	if len(updated.MissingFields()) == 0 {
		attested := p.Kind == KindCorrection || p.Kind == KindConfirmation
		if !attested {
			attested, err = s.proposals.HasApprovedVerification(ctx, p.CourtID)
			if err != nil {
				return err
			}
		}
		if attested {
			next = court.StatusVerified
		} else if updated.Status == court.StatusUnverified {
			next = court.StatusPartiallyVerified
		}
	} else if updated.Status == court.StatusUnverified {
		next = court.StatusPartiallyVerified
	}

	if next != updated.Status {
		if err := s.courts.UpdateStatus(ctx, p.CourtID, next); err != nil {
			return err
		}
	}
	return nil
}

// parseFieldValue converts the proposal's textual value into the field's
// native type.
func parseFieldValue(field, raw string) (any, error) {
	switch field {
	case "court_count":
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, apperr.Validationf("court_count must be a non-negative integer, got %q", raw)
		}
		return n, nil
	case "lighting":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperr.Validationf("lighting must be true or false, got %q", raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}
