package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

// riverside has a known surface and phone; everything else is unknown.
func riverside() court.Court {
	return court.Court{
		ID:      "c1",
		Name:    "Riverside Tennis Courts",
		Address: "100 River Rd",
		Point:   geomatch.Point{Lat: 33.749, Lng: -84.388},
		Sports:  []string{"tennis"},
		Status:  court.StatusUnverified,
		Surface: strPtr("hard"),
		Phone:   strPtr("555-0100"),
	}
}

func newTestService(seed ...court.Court) (*Service, *memCourtStore, *memProposalStore) {
	courts := newMemCourtStore(seed...)
	proposals := newMemProposalStore()
	return NewService(courts, proposals), courts, proposals
}

func TestSubmit_AdditionOnUnknownField(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	p, err := svc.Submit(context.Background(), SubmitInput{
		CourtID:     "c1",
		Field:       "court_count",
		Kind:        KindAddition,
		NewValue:    "6",
		SubmitterID: "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Nil(t, p.OldValue)
	assert.NotEmpty(t, p.ID)
}

func TestSubmit_CorrectionOnUnknownFieldRejected(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	_, err := svc.Submit(context.Background(), SubmitInput{
		CourtID:  "c1",
		Field:    "court_count",
		Kind:     KindCorrection,
		NewValue: "6",
	})

	assert.True(t, apperr.IsValidation(err))
}

func TestSubmit_AdditionOnKnownFieldConflicts(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	_, err := svc.Submit(context.Background(), SubmitInput{
		CourtID:  "c1",
		Field:    "surface",
		Kind:     KindAddition,
		NewValue: "clay",
	})

	assert.True(t, apperr.IsConflict(err))
}

func TestSubmit_CorrectionSnapshotsOldValue(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	p, err := svc.Submit(context.Background(), SubmitInput{
		CourtID:  "c1",
		Field:    "surface",
		Kind:     KindCorrection,
		NewValue: "clay",
	})

	require.NoError(t, err)
	require.NotNil(t, p.OldValue)
	assert.Equal(t, "hard", *p.OldValue)
}

func TestSubmit_Validation(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	cases := []struct {
		name string
		in   SubmitInput
	}{
		{"unknown kind", SubmitInput{CourtID: "c1", Field: "surface", Kind: "guess", NewValue: "clay"}},
		{"unknown field", SubmitInput{CourtID: "c1", Field: "color", Kind: KindAddition, NewValue: "blue"}},
		{"empty value", SubmitInput{CourtID: "c1", Field: "surface", Kind: KindCorrection}},
		{"non-numeric count", SubmitInput{CourtID: "c1", Field: "court_count", Kind: KindAddition, NewValue: "many"}},
		{"non-boolean lighting", SubmitInput{CourtID: "c1", Field: "lighting", Kind: KindAddition, NewValue: "sometimes"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.in)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestSubmit_UnknownCourt(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Submit(context.Background(), SubmitInput{
		CourtID:  "ghost",
		Field:    "surface",
		Kind:     KindAddition,
		NewValue: "clay",
	})

	assert.True(t, apperr.IsNotFound(err))
}

func TestSubmit_MultiplePendingOnSameFieldAllowed(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	for _, value := range []string{"4", "6"} {
		_, err := svc.Submit(context.Background(), SubmitInput{
			CourtID:  "c1",
			Field:    "court_count",
			Kind:     KindAddition,
			NewValue: value,
		})
		require.NoError(t, err)
	}
}

func TestReview_RequiresModerator(t *testing.T) {
	svc, _, _ := newTestService(riverside())

	_, err := svc.Review(context.Background(), "user", ReviewInput{
		ProposalID: "prop-1",
		Decision:   DecisionApprove,
	})

	assert.True(t, apperr.IsAuthorization(err))
}

func TestReview_RejectLeavesCourtUnchanged(t *testing.T) {
	svc, courts, proposals := newTestService(riverside())

	p, err := svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "surface", Kind: KindCorrection, NewValue: "clay",
	})
	require.NoError(t, err)

	updated, err := svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID:  p.ID,
		Decision:    DecisionReject,
		Note:        "photo shows a hard court",
		ModeratorID: "m1",
	})

	require.NoError(t, err)
	assert.Equal(t, "hard", *updated.Surface)

	stored, err := proposals.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, stored.Status)
	require.NotNil(t, stored.DecisionNote)
	assert.Equal(t, "photo shows a hard court", *stored.DecisionNote)

	c, _ := courts.Get(context.Background(), "c1")
	assert.Equal(t, court.StatusUnverified, c.Status)
}

func TestReview_ApproveCommitsValueOnce(t *testing.T) {
	svc, courts, _ := newTestService(riverside())

	p, err := svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "surface", Kind: KindCorrection, NewValue: "clay",
	})
	require.NoError(t, err)

	updated, err := svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID:  p.ID,
		Decision:    DecisionApprove,
		ModeratorID: "m1",
	})
	require.NoError(t, err)
	assert.Equal(t, "clay", *updated.Surface)

	// Other fields untouched.
	c, _ := courts.Get(context.Background(), "c1")
	assert.Equal(t, "555-0100", *c.Phone)

	// A second approval attempt on the resolved proposal is rejected.
	_, err = svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID:  p.ID,
		Decision:    DecisionApprove,
		ModeratorID: "m2",
	})
	assert.True(t, apperr.IsConflict(err))
}

func TestReview_ApproveTypedFields(t *testing.T) {
	svc, courts, _ := newTestService(riverside())

	p, err := svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "court_count", Kind: KindAddition, NewValue: "6",
	})
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID: p.ID, Decision: DecisionApprove, ModeratorID: "m1",
	})
	require.NoError(t, err)

	p, err = svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "lighting", Kind: KindAddition, NewValue: "true",
	})
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID: p.ID, Decision: DecisionApprove, ModeratorID: "m1",
	})
	require.NoError(t, err)

	c, _ := courts.Get(context.Background(), "c1")
	require.NotNil(t, c.CourtCount)
	assert.Equal(t, 6, *c.CourtCount)
	require.NotNil(t, c.Lighting)
	assert.True(t, *c.Lighting)
}

func TestReview_StatusProgression(t *testing.T) {
	svc, courts, _ := newTestService(riverside())

	// First approved addition moves unverified → partially_verified.
	p, err := svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "court_count", Kind: KindAddition, NewValue: "6",
	})
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID: p.ID, Decision: DecisionApprove, ModeratorID: "m1",
	})
	require.NoError(t, err)

	c, _ := courts.Get(context.Background(), "c1")
	assert.Equal(t, court.StatusPartiallyVerified, c.Status)
	assert.True(t, c.NeedsVerification())

	// Fill the remaining unknowns.
	for field, value := range map[string]string{
		"lighting":      "true",
		"website":       "https://example.org",
		"opening_hours": "Mon-Sun 8am-10pm",
	} {
		p, err := svc.Submit(context.Background(), SubmitInput{
			CourtID: "c1", Field: field, Kind: KindAddition, NewValue: value,
		})
		require.NoError(t, err)
		_, err = svc.Review(context.Background(), "moderator", ReviewInput{
			ProposalID: p.ID, Decision: DecisionApprove, ModeratorID: "m1",
		})
		require.NoError(t, err)
	}

	// All fields known but nothing attested yet: not verified.
	c, _ = courts.Get(context.Background(), "c1")
	assert.Equal(t, court.StatusPartiallyVerified, c.Status)

	// An approved confirmation with no unknowns left completes verification.
	p, err = svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "surface", Kind: KindConfirmation, NewValue: "hard",
	})
	require.NoError(t, err)
	updated, err := svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID: p.ID, Decision: DecisionApprove, ModeratorID: "m1",
	})
	require.NoError(t, err)

	assert.Equal(t, court.StatusVerified, updated.Status)
	assert.False(t, updated.NeedsVerification())
}

func TestReview_LastApprovedWins(t *testing.T) {
	svc, courts, _ := newTestService(riverside())

	first, err := svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "surface", Kind: KindCorrection, NewValue: "clay",
	})
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), SubmitInput{
		CourtID: "c1", Field: "surface", Kind: KindCorrection, NewValue: "grass",
	})
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID: first.ID, Decision: DecisionApprove, ModeratorID: "m1",
	})
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), "moderator", ReviewInput{
		ProposalID: second.ID, Decision: DecisionApprove, ModeratorID: "m2",
	})
	require.NoError(t, err)

	c, _ := courts.Get(context.Background(), "c1")
	assert.Equal(t, "grass", *c.Surface)
}
