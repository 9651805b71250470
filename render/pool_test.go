package render_test

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atelierlab/maquette/element"
	"github.com/atelierlab/maquette/fetch"
	"github.com/atelierlab/maquette/render"
)

// blockingEngine parks every Load until released, counting concurrent
// callers.
type blockingEngine struct {
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func (e *blockingEngine) Load(ctx context.Context, html string, w, h int) (render.Page, error) {
	n := e.active.Add(1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer e.active.Add(-1)
	select {
	case <-e.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &fakePage{contentHeight: 10}, nil
}

// WHAT: 6 exports through a pool of 2 never run more than 2 engines at once.
func TestPoolCapsConcurrency(t *testing.T) {
	eng := &blockingEngine{release: make(chan struct{})}
	pipeline := render.NewPipeline(render.Config{
		Engine:  eng,
		Fetcher: fetch.New(fetch.Config{}),
		Logger:  slog.New(slog.DiscardHandler),
	})
	pool := render.NewPool(pipeline, 2, slog.New(slog.DiscardHandler))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Export(context.Background(), render.Request{
				Title: "x", Mode: element.ModeText,
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}

	// Let the first wave park inside the engine.
	time.Sleep(50 * time.Millisecond)
	if got := pool.InFlight(); got != 2 {
		t.Fatalf("in flight %d, want 2", got)
	}
	close(eng.release)
	wg.Wait()

	if got := eng.peak.Load(); got > 2 {
		t.Fatalf("peak concurrency %d, want <= 2", got)
	}
}

func TestPoolRespectsContextWhileWaiting(t *testing.T) {
	eng := &blockingEngine{release: make(chan struct{})}
	defer close(eng.release)

	pipeline := render.NewPipeline(render.Config{
		Engine:  eng,
		Fetcher: fetch.New(fetch.Config{}),
		Logger:  slog.New(slog.DiscardHandler),
	})
	pool := render.NewPool(pipeline, 1, slog.New(slog.DiscardHandler))

	// Occupy the single slot.
	go pool.Export(context.Background(), render.Request{Title: "x", Mode: element.ModeText})
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := pool.Export(ctx, render.Request{Title: "y", Mode: element.ModeText})
	if err == nil {
		t.Fatal("export should fail while waiting on a full pool")
	}
}
