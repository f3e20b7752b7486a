package jobs

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jdoseph/rateyourcourt-sub000/internal/apperr"
	"github.com/jdoseph/rateyourcourt-sub000/internal/discovery"
)

// Runner executes one discovery run. Satisfied by *discovery.Runner.
type Runner interface {
	Run(ctx context.Context, req discovery.Request) (*discovery.Stats, error)
}

// Config bounds what the manager accepts and how it runs.
type Config struct {
	Workers       int
	MinRadiusM    float64
	MaxRadiusM    float64
	AllowedSports []string
	AreaCellKM    float64
	HistoryLimit  int
	HistoryTTL    time.Duration
}

// Snapshot is the scheduler status report.
type Snapshot struct {
	Running   bool `json:"running"`
	Waiting   int  `json:"waiting"`
	Active    int  `json:"active"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
}

// Manager owns the job queue and worker pool. Enqueueing is always allowed;
// jobs only move to active while the scheduler is running.
type Manager struct {
	cfg    Config
	runner Runner
	store  Store // optional; nil disables persistence

	mu    sync.Mutex
	jobs  map[string]*Job
	queue []string // waiting job IDs, FIFO
	order []string // all job IDs, enqueue order
	locks *areaLock

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	wake    chan struct{}
}

// NewManager creates a Manager.
func NewManager(cfg Config, runner Runner, store Store) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.AreaCellKM <= 0 {
		cfg.AreaCellKM = 10
	}
	return &Manager{
		cfg:    cfg,
		runner: runner,
		store:  store,
		jobs:   make(map[string]*Job),
		locks:  newAreaLock(),
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue validates params and appends a waiting job to the queue. Invalid
// params are rejected before a job record exists.
func (m *Manager) Enqueue(ctx context.Context, params discovery.Request) (Job, error) {
	if err := m.validate(params); err != nil {
		return Job{}, err
	}

	job := &Job{
		ID:         uuid.NewString(),
		Params:     params,
		State:      StateWaiting,
		EnqueuedAt: time.Now(),
	}

	if m.store != nil {
		if err := m.store.CreateJob(ctx, job); err != nil {
			return Job{}, err
		}
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.queue = append(m.queue, job.ID)
	m.order = append(m.order, job.ID)
	m.mu.Unlock()

	m.signal()

	zap.L().Info("discovery job enqueued",
		zap.String("job_id", job.ID),
		zap.String("sport", params.Sport),
		zap.Float64("radius_m", params.RadiusM),
	)
	return job.clone(), nil
}

func (m *Manager) validate(params discovery.Request) error {
	if !params.Point.Valid() {
		return apperr.Validationf("coordinate out of range: %.4f, %.4f", params.Point.Lat, params.Point.Lng)
	}
	if params.RadiusM < m.cfg.MinRadiusM || params.RadiusM > m.cfg.MaxRadiusM {
		return apperr.Validationf("radius %.0fm outside allowed range [%.0f, %.0f]",
			params.RadiusM, m.cfg.MinRadiusM, m.cfg.MaxRadiusM)
	}
	if !slices.Contains(m.cfg.AllowedSports, params.Sport) {
		return apperr.Validationf("unsupported sport %q", params.Sport)
	}
	return nil
}

// Start launches the dispatcher and worker pool. Idempotent while running.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.dispatch(runCtx, m.done)
	zap.L().Info("discovery scheduler started", zap.Int("workers", m.cfg.Workers))
}

// Stop halts dispatching. Active jobs run to completion; waiting jobs stay
// queued for the next Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done
	zap.L().Info("discovery scheduler stopped")
}

// dispatch pulls dispatchable jobs off the queue and hands them to the
// bounded worker pool. A job is dispatchable when its area lock is free;
// locked jobs are skipped over so distant work is not head-of-line blocked.
func (m *Manager) dispatch(ctx context.Context, done chan struct{}) {
	var g errgroup.Group
	g.SetLimit(m.cfg.Workers)

	defer func() {
		g.Wait() //nolint:errcheck
		close(done)
	}()

	for {
		job, cells := m.next()
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
				continue
			}
		}

		started := g.TryGo(func() error {
			// Once active, a job runs to its terminal state even through
			// scheduler shutdown.
			m.execute(context.WithoutCancel(ctx), job)
			m.mu.Lock()
			m.locks.release(cells)
			m.mu.Unlock()
			m.signal()
			return nil
		})
		if !started {
			// Pool is full. Put the job back and wait for a worker.
			m.requeue(job, cells)
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
			}
		}
	}
}

// next pops the first waiting job whose area lock can be acquired. Returns
// nil when nothing is dispatchable.
func (m *Manager) next() (*Job, []cellKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range m.queue {
		job := m.jobs[id]
		cells := neighborhood(job.Params.Point, m.cfg.AreaCellKM)
		if !m.locks.tryAcquire(cells) {
			continue
		}
		m.queue = append(m.queue[:i], m.queue[i+1:]...)
		job.State = StateActive
		now := time.Now()
		job.StartedAt = &now
		return job, cells
	}
	return nil, nil
}

// requeue returns a job claimed by next back to the head of the queue.
func (m *Manager) requeue(job *Job, cells []cellKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks.release(cells)
	job.State = StateWaiting
	job.StartedAt = nil
	m.queue = append([]string{job.ID}, m.queue...)
}

// execute runs one job to a terminal state.
func (m *Manager) execute(ctx context.Context, job *Job) {
	if m.store != nil {
		if err := m.store.MarkActive(ctx, job.ID); err != nil {
			zap.L().Warn("jobs: persist active state failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	stats, err := m.runner.Run(ctx, job.Params)
	now := time.Now()

	m.mu.Lock()
	job.CompletedAt = &now
	if err != nil {
		job.State = StateFailed
		job.Error = err.Error()
	} else {
		job.State = StateCompleted
		job.Stats = stats
	}
	m.mu.Unlock()

	if err != nil {
		zap.L().Warn("discovery job failed", zap.String("job_id", job.ID), zap.Error(err))
		if m.store != nil {
			if perr := m.store.FailJob(ctx, job.ID, err.Error()); perr != nil {
				zap.L().Warn("jobs: persist failure failed", zap.String("job_id", job.ID), zap.Error(perr))
			}
		}
		return
	}

	if m.store != nil {
		if perr := m.store.CompleteJob(ctx, job.ID, stats); perr != nil {
			zap.L().Warn("jobs: persist completion failed", zap.String("job_id", job.ID), zap.Error(perr))
		}
	}
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Get returns a job by ID.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, apperr.NotFound("job", id)
	}
	return job.clone(), nil
}

// Status reports per-state counts and whether the scheduler is running.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{Running: m.running}
	for _, job := range m.jobs {
		switch job.State {
		case StateWaiting:
			snap.Waiting++
		case StateActive:
			snap.Active++
		case StateCompleted:
			snap.Completed++
		case StateFailed:
			snap.Failed++
		}
	}
	return snap
}

// Recent returns up to limit jobs, most recently enqueued first.
func (m *Manager) Recent(limit int) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}

	out := make([]Job, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.jobs[m.order[i]].clone())
	}
	return out
}

// Prune drops terminal jobs beyond the retention window from memory and, when
// persistence is configured, from the durable history.
func (m *Manager) Prune(ctx context.Context) {
	cutoff := time.Now().Add(-m.cfg.HistoryTTL)

	m.mu.Lock()
	kept := make([]string, 0, len(m.order))
	terminal := 0
	for i := len(m.order) - 1; i >= 0; i-- {
		job := m.jobs[m.order[i]]
		if job.State.Terminal() {
			terminal++
			if terminal > m.cfg.HistoryLimit && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(m.jobs, job.ID)
				continue
			}
		}
		kept = append(kept, job.ID)
	}
	slices.Reverse(kept)
	m.order = kept
	m.mu.Unlock()

	if m.store != nil {
		if n, err := m.store.PruneHistory(ctx, m.cfg.HistoryLimit, m.cfg.HistoryTTL); err != nil {
			zap.L().Warn("jobs: prune history failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("pruned job history", zap.Int64("deleted", n))
		}
	}
}
