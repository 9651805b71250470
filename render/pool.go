package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pool serializes exports through a bounded set of slots. Each export
// launches its own Chrome, and Chrome is expensive; the pool caps how many
// run at once instead of letting concurrent requests fork unbounded
// renderer processes.
type Pool struct {
	pipeline *Pipeline
	slots    chan struct{}
	logger   *slog.Logger
}

// NewPool wraps a pipeline with max concurrent export slots (default 2).
func NewPool(pipeline *Pipeline, max int, logger *slog.Logger) *Pool {
	if max <= 0 {
		max = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		pipeline: pipeline,
		slots:    make(chan struct{}, max),
		logger:   logger,
	}
}

// Export acquires a slot (or fails when ctx is cancelled while waiting) and
// runs the pipeline.
func (p *Pool) Export(ctx context.Context, req Request) (*Response, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("render: waiting for export slot: %w", ctx.Err())
	}
	defer func() { <-p.slots }()

	start := time.Now()
	resp, err := p.pipeline.Export(ctx, req)
	p.logger.Info("render: export finished",
		"mode", req.Mode, "format", req.Format, "scale", req.Scale,
		"duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	return resp, err
}

// InFlight reports the number of exports currently holding a slot.
func (p *Pool) InFlight() int { return len(p.slots) }
