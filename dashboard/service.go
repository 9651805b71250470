package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/atelierlab/maquette/eventlog"
	"github.com/atelierlab/maquette/render"
	"github.com/atelierlab/maquette/renderq"
	"github.com/atelierlab/maquette/store"
)

// Service is the assembled dashboard: storage, render pool, export queue,
// and event log.
type Service struct {
	cfg    *Config
	store  *store.Store
	pool   *render.Pool
	queue  *renderq.Queue
	events *eventlog.Logger
	logger *slog.Logger
}

// New assembles a Service. The store, queue, and event log must already be
// initialised against the same database.
func New(cfg *Config, st *store.Store, pool *render.Pool, queue *renderq.Queue, events *eventlog.Logger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		store:  st,
		pool:   pool,
		queue:  queue,
		events: events,
		logger: logger,
	}
}

// Store exposes the content store to the entrypoint.
func (s *Service) Store() *store.Store { return s.store }

// Render runs one synchronous export and records the outcome.
func (s *Service) Render(ctx context.Context, req render.Request) (*render.Response, error) {
	start := time.Now()
	resp, err := s.pool.Export(ctx, req)

	ev := eventlog.ExportEvent{
		Category:   req.Category,
		Mode:       string(req.Mode),
		Format:     string(req.Format),
		Scale:      req.Scale,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.events.LogExport(ctx, ev)

	return resp, err
}

// SubmitRender queues an asynchronous export and returns the job id.
func (s *Service) SubmitRender(ctx context.Context, req render.Request) (string, error) {
	return s.queue.Submit(ctx, req)
}

// RenderStatus reports an async job's state and result.
func (s *Service) RenderStatus(ctx context.Context, id string) (*renderq.Job, error) {
	return s.queue.Status(ctx, id)
}

// BadgeResolver adapts the store to the render pipeline's badge contract.
type BadgeResolver struct {
	Store *store.Store
}

// ResolveCategoryBadge implements render.BadgeResolver.
func (r BadgeResolver) ResolveCategoryBadge(ctx context.Context, key string) (render.Badge, error) {
	a, err := r.Store.ResolveCategoryBadge(ctx, key)
	if err != nil {
		return render.Badge{}, err
	}
	return render.Badge{Data: a.Data, Mime: a.Mime}, nil
}

// RunWorkers starts the async export worker and the event-log retention
// sweep; both stop when ctx is cancelled.
func (s *Service) RunWorkers(ctx context.Context) {
	go s.queue.Run(ctx, s.pool)

	retention := time.Duration(s.cfg.EventRetentionDays) * 24 * time.Hour
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.events.Cleanup(ctx, retention); err != nil {
				s.logger.Warn("event retention sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Info("event retention sweep", "deleted", n)
			}
		}
	}
}
