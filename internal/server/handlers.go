package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
	"github.com/jdoseph/rateyourcourt-sub000/internal/verify"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type triggerRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
	Sport   string  `json:"sport"`
}

// handleTrigger enqueues a discovery job. Always returns a job id
// immediately; the caller polls status to learn of eventual failure.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validationf("invalid request body"))
		return
	}

	job, err := s.manager.Enqueue(r.Context(), discovery.Request{
		Point:   geomatch.Point{Lat: req.Lat, Lng: req.Lng},
		RadiusM: req.RadiusM,
		Sport:   req.Sport,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.manager.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"queue": map[string]int{
			"waiting":   snap.Waiting,
			"active":    snap.Active,
			"completed": snap.Completed,
			"failed":    snap.Failed,
		},
		"scheduler": map[string]bool{"running": snap.Running},
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, apperr.Validationf("limit must be a positive integer"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.manager.Recent(limit)})
}

type schedulerRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleScheduler(w http.ResponseWriter, r *http.Request) {
	var req schedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validationf("invalid request body"))
		return
	}

	switch req.Action {
	case "start":
		s.manager.Start(context.WithoutCancel(r.Context()))
	case "stop":
		s.manager.Stop()
	default:
		writeError(w, apperr.Validationf("action must be start or stop"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"running": s.manager.Status().Running,
		"message": "scheduler " + req.Action + " acknowledged",
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req discovery.Suggestion
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validationf("invalid request body"))
		return
	}

	result, err := s.suggester.Suggest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (s *Server) handleGetCourt(w http.ResponseWriter, r *http.Request) {
	c, err := s.courts.Get(r.Context(), chi.URLParam(r, "courtID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleMissingFields backs the "needs verification" view. Computed from
// current field state on every request.
func (s *Server) handleMissingFields(w http.ResponseWriter, r *http.Request) {
	c, err := s.courts.Get(r.Context(), chi.URLParam(r, "courtID"))
	if err != nil {
		writeError(w, err)
		return
	}

	missing := c.MissingFields()
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"court_id":           c.ID,
		"missing_fields":     missing,
		"needs_verification": c.NeedsVerification(),
	})
}

func (s *Server) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req verify.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validationf("invalid request body"))
		return
	}
	req.CourtID = chi.URLParam(r, "courtID")
	req.SubmitterID = callerID(r.Context())
	if req.SubmitterID == "" {
		writeError(w, apperr.Validationf("proposal submission requires an identified caller"))
		return
	}

	p, err := s.verify.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"proposal_id": p.ID})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req verify.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validationf("invalid request body"))
		return
	}
	req.ProposalID = chi.URLParam(r, "proposalID")
	req.ModeratorID = callerID(r.Context())

	updated, err := s.verify.Review(r.Context(), callerRole(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
