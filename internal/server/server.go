// Package server exposes the pipeline over HTTP for the interface layer.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
	"github.com/jdoseph/rateyourcourt-sub000/internal/jobs"
	"github.com/jdoseph/rateyourcourt-sub000/internal/verify"
)

// Suggester runs the suggestion path. Satisfied by *discovery.Runner.
type Suggester interface {
	Suggest(ctx context.Context, s discovery.Suggestion) (*discovery.SuggestResult, error)
}

// Server wires the HTTP surface to the pipeline.
type Server struct {
	manager   *jobs.Manager
	verify    *verify.Service
	courts    court.Store
	suggester Suggester

	// AllowedOrigins overrides the default permissive CORS policy.
	AllowedOrigins []string
}

// New creates a Server.
func New(manager *jobs.Manager, vs *verify.Service, courts court.Store, suggester Suggester) *Server {
	return &Server{
		manager:   manager,
		verify:    vs,
		courts:    courts,
		suggester: suggester,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID", "X-User-Role"},
		MaxAge:         300,
	}))
	r.Use(identity)

	r.Get("/health", s.handleHealth)

	r.Route("/discovery", func(r chi.Router) {
		r.Post("/trigger", s.handleTrigger)
		r.Get("/status", s.handleStatus)
		r.Get("/jobs", s.handleJobs)
		r.Post("/scheduler", s.handleScheduler)
	})

	r.Post("/suggestions", s.handleSuggest)

	r.Route("/courts/{courtID}", func(r chi.Router) {
		r.Get("/", s.handleGetCourt)
		r.Get("/missing-fields", s.handleMissingFields)
		r.Post("/proposals", s.handleSubmitProposal)
	})

	r.Post("/proposals/{proposalID}/review", s.handleReview)

	return r
}
