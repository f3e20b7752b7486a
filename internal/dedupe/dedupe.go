// Package dedupe reconciles candidate court records against the canonical
// store without creating duplicates.
package dedupe

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
)

// FieldFill is a silent merge of a candidate-supplied value into a currently
// unknown field on a matched court. It does not go through verification: it
// originates from a like-for-like re-discovery, not a disputed correction.
type FieldFill struct {
	CourtID string
	Field   string
	Value   any
}

// Result summarizes one classification pass.
type Result struct {
	New        []court.Candidate
	Duplicates int
	Dropped    int
	Total      int
	FieldFills []FieldFill
}

// Classify partitions candidates into new records and duplicates of the given
// existing set. Malformed candidates are dropped and counted. Candidates
// already staged as new within the same batch also count as dedup targets, so
// a provider returning the same court twice yields one new record.
func Classify(candidates []court.Candidate, existing []court.Court, t geomatch.Thresholds) Result {
	result := Result{Total: len(candidates)}

	for _, cand := range candidates {
		if cand.Malformed() {
			result.Dropped++
			continue
		}

		matched := false
		for i := range existing {
			if geomatch.IsDuplicate(cand.Site(), existing[i].Site(), t) {
				result.Duplicates++
				result.FieldFills = append(result.FieldFills, fills(&cand, &existing[i])...)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		for i := range result.New {
			if geomatch.IsDuplicate(cand.Site(), result.New[i].Site(), t) {
				result.Duplicates++
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		result.New = append(result.New, cand)
	}

	return result
}

// fills returns the candidate values that fill currently unknown fields on the
// matched court.
func fills(cand *court.Candidate, existing *court.Court) []FieldFill {
	var out []FieldFill
	add := func(field string, have any, supplied any) {
		if have == nil && supplied != nil {
			out = append(out, FieldFill{CourtID: existing.ID, Field: field, Value: supplied})
		}
	}

	add("surface", existing.FieldValue("surface"), deref(cand.Surface))
	add("court_count", existing.FieldValue("court_count"), derefInt(cand.CourtCount))
	add("lighting", existing.FieldValue("lighting"), derefBool(cand.Lighting))
	add("phone", existing.FieldValue("phone"), deref(cand.Phone))
	add("website", existing.FieldValue("website"), deref(cand.Website))
	add("opening_hours", existing.FieldValue("opening_hours"), deref(cand.OpeningHours))
	return out
}

func deref(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

// PromoteResult summarizes persisting new candidates into the canonical store.
type PromoteResult struct {
	InsertedIDs  []string
	Reclassified int
}

// Promote persists new candidates as canonical courts. Immediately before each
// insert it re-checks the latest store state near the candidate, closing the
// race between the dedup read and the write: a last-moment collision is
// reclassified as duplicate rather than inserted.
func Promote(ctx context.Context, store court.Store, candidates []court.Candidate, t geomatch.Thresholds) (*PromoteResult, error) {
	log := zap.L().With(zap.String("phase", "promote"))
	result := &PromoteResult{}

	for i := range candidates {
		cand := &candidates[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		latest, err := store.FindNear(ctx, cand.Point, t.MaxDistanceM)
		if err != nil {
			return result, err
		}

		collided := false
		for j := range latest {
			if geomatch.IsDuplicate(cand.Site(), latest[j].Site(), t) {
				collided = true
				break
			}
		}
		if collided {
			result.Reclassified++
			log.Debug("candidate collided at insert time, reclassified as duplicate",
				zap.String("name", cand.Name))
			continue
		}

		id, err := store.Insert(ctx, cand.Court())
		if err != nil {
			return result, err
		}
		result.InsertedIDs = append(result.InsertedIDs, id)
	}

	return result, nil
}

// ApplyFills writes queued silent field fills. Failures are logged and
// skipped: a missed fill is re-discoverable on the next run.
func ApplyFills(ctx context.Context, store court.Store, fillsToApply []FieldFill) int {
	applied := 0
	for _, f := range fillsToApply {
		if err := store.UpdateField(ctx, f.CourtID, f.Field, f.Value); err != nil {
			zap.L().Warn("field fill failed",
				zap.String("court_id", f.CourtID),
				zap.String("field", f.Field),
				zap.Error(err),
			)
			continue
		}
		applied++
	}
	return applied
}
