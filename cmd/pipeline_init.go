package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jdoseph/rateyourcourt-sub000/internal/cache"
	"github.com/jdoseph/rateyourcourt-sub000/internal/court"
	"github.com/jdoseph/rateyourcourt-sub000/internal/db"
	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
	"github.com/jdoseph/rateyourcourt-sub000/internal/geomatch"
	"github.com/jdoseph/rateyourcourt-sub000/internal/jobs"
	"github.com/jdoseph/rateyourcourt-sub000/internal/verify"
	"github.com/jdoseph/rateyourcourt-sub000/pkg/geocode"
	"github.com/jdoseph/rateyourcourt-sub000/pkg/places"
)

// pipelineEnv bundles the wired pipeline for commands.
type pipelineEnv struct {
	pool    *pgxpool.Pool
	courts  court.Store
	runner  *discovery.Runner
	manager *jobs.Manager
	verify  *verify.Service
}

func (e *pipelineEnv) Close() {
	e.pool.Close()
}

// initPipeline connects the store and constructs the discovery runner, job
// manager, and verification service from config.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store.database_url is required (COURTPIPE_STORE_DATABASE_URL)")
	}

	pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, err
	}

	courts := court.NewPostgresStore(pool)

	placesClient := places.NewClient(cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithRateLimit(cfg.Places.RateLimit),
		places.WithTimeout(time.Duration(cfg.Places.TimeoutSecs)*time.Second),
	)
	geocodeClient := geocode.NewClient(cfg.Geocode.Key,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
	)

	resultCache := cache.New(pool,
		time.Duration(cfg.Discovery.CacheTTLHours)*time.Hour,
		cfg.Discovery.CachePrecision,
	)

	thresholds := geomatch.Thresholds{
		MaxDistanceM:      cfg.Discovery.MaxDistanceM,
		MinNameSimilarity: cfg.Discovery.MinNameSimilarity,
	}

	runner := discovery.NewRunner(courts, placesClient, geocodeClient, resultCache,
		thresholds, cfg.Discovery.LookupPaddingM)

	manager := jobs.NewManager(jobs.Config{
		Workers:       cfg.Discovery.Workers,
		MinRadiusM:    cfg.Discovery.MinRadiusM,
		MaxRadiusM:    cfg.Discovery.MaxRadiusM,
		AllowedSports: cfg.Discovery.AllowedSports,
		AreaCellKM:    cfg.Discovery.AreaCellKM,
		HistoryLimit:  cfg.Discovery.HistoryLimit,
		HistoryTTL:    time.Duration(cfg.Discovery.HistoryTTLHours) * time.Hour,
	}, runner, jobs.NewPostgresStore(pool))

	return &pipelineEnv{
		pool:    pool,
		courts:  courts,
		runner:  runner,
		manager: manager,
		verify:  verify.NewService(courts, verify.NewPostgresStore(pool)),
	}, nil
}
