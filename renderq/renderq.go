// Package renderq queues export jobs in SQLite with a visibility timeout.
//
// Each submitted render job becomes a row that consumers claim atomically;
// a claimed row turns invisible for the visibility window and reappears if
// the worker dies mid-render, so every accepted export completes at least
// once. Results land in a separate table that survives the queue row.
//
// The queue is pure SQLite — no external broker.
package renderq

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelierlab/maquette/idgen"
	"github.com/atelierlab/maquette/render"
)

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("renderq: job not found")

// State describes where a job is in its lifecycle.
type State string

const (
	StatePending State = "pending" // queued or claimed, not finished
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Job is the externally visible view of one export job.
type Job struct {
	ID          string    `json:"id"`
	State       State     `json:"state"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	Error       string    `json:"error,omitempty"`
	// Result is set when State is done.
	Result *render.Response `json:"result,omitempty"`
}

// Exporter renders one request. *render.Pool satisfies it.
type Exporter interface {
	Export(ctx context.Context, req render.Request) (*render.Response, error)
}

// Options configures queue behaviour.
type Options struct {
	// Visibility is how long a claimed job stays invisible. Must exceed
	// the render timeout. Default: 2m.
	Visibility time.Duration
	// PollInterval is the delay between claim attempts. Default: 1s.
	PollInterval time.Duration
	// MaxAttempts before a job is failed permanently. Default: 3.
	MaxAttempts int
	// IDs generates job ids. Default: idgen.Prefixed("exp_", idgen.Default).
	IDs    idgen.Generator
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Visibility <= 0 {
		o.Visibility = 2 * time.Minute
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.IDs == nil {
		o.IDs = idgen.Prefixed("exp_", idgen.Default)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Queue is the job queue handle.
type Queue struct {
	db   *sql.DB
	opts Options
}

// New creates a queue handle. Call Init once at startup.
func New(db *sql.DB, opts Options) *Queue {
	opts.defaults()
	return &Queue{db: db, opts: opts}
}

// Init creates the queue and result tables.
func (q *Queue) Init(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS render_jobs (
			id          TEXT PRIMARY KEY,
			payload     TEXT NOT NULL,
			visible_at  INTEGER NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL,
			attempts    INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_render_jobs_visible ON render_jobs (visible_at);

		CREATE TABLE IF NOT EXISTS render_results (
			id           TEXT PRIMARY KEY,
			mime         TEXT NOT NULL DEFAULT '',
			width        INTEGER NOT NULL DEFAULT 0,
			height       INTEGER NOT NULL DEFAULT 0,
			data         BLOB,
			error        TEXT NOT NULL DEFAULT '',
			attempts     INTEGER NOT NULL DEFAULT 0,
			created_at   INTEGER NOT NULL,
			completed_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("renderq: init schema: %w", err)
	}
	return nil
}

// Submit queues an export request and returns the job id.
func (q *Queue) Submit(ctx context.Context, req render.Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("renderq: encode request: %w", err)
	}
	id := q.opts.IDs()
	now := time.Now().UnixMilli()
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO render_jobs (id, payload, visible_at, created_at) VALUES (?,?,?,?)`,
		id, string(payload), now, now)
	if err != nil {
		return "", fmt.Errorf("renderq: submit: %w", err)
	}
	return id, nil
}

// Status reports the job's state, with the result when it finished.
func (q *Queue) Status(ctx context.Context, id string) (*Job, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT mime, width, height, data, error, attempts, created_at, completed_at
		FROM render_results WHERE id = ?`, id)
	var (
		mime               string
		width, height      int
		data               []byte
		errMsg             string
		attempts           int
		created, completed int64
	)
	err := row.Scan(&mime, &width, &height, &data, &errMsg, &attempts, &created, &completed)
	switch {
	case err == nil:
		job := &Job{
			ID:          id,
			Attempts:    attempts,
			CreatedAt:   time.UnixMilli(created),
			CompletedAt: time.UnixMilli(completed),
		}
		if errMsg != "" {
			job.State = StateFailed
			job.Error = errMsg
			return job, nil
		}
		job.State = StateDone
		job.Result = &render.Response{Data: data, MimeType: mime, Width: width, Height: height}
		return job, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("renderq: status: %w", err)
	}

	row = q.db.QueryRowContext(ctx,
		`SELECT attempts, created_at FROM render_jobs WHERE id = ?`, id)
	var createdQ int64
	var attemptsQ int
	err = row.Scan(&attemptsQ, &createdQ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("renderq: status: %w", err)
	}
	return &Job{ID: id, State: StatePending, Attempts: attemptsQ, CreatedAt: time.UnixMilli(createdQ)}, nil
}

// claim atomically picks the oldest visible job and hides it for the
// visibility window. Returns nil when the queue is empty.
func (q *Queue) claim(ctx context.Context) (id string, payload []byte, attempts int, err error) {
	now := time.Now()
	hideUntil := now.Add(q.opts.Visibility).UnixMilli()

	row := q.db.QueryRowContext(ctx, `
		UPDATE render_jobs
		SET visible_at = ?, attempts = attempts + 1
		WHERE id = (
			SELECT id FROM render_jobs
			WHERE visible_at <= ?
			ORDER BY visible_at ASC
			LIMIT 1
		)
		RETURNING id, payload, attempts`,
		hideUntil, now.UnixMilli())

	var p string
	err = row.Scan(&id, &p, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, 0, nil
	}
	if err != nil {
		return "", nil, 0, fmt.Errorf("renderq: claim: %w", err)
	}
	return id, []byte(p), attempts, nil
}

// finish writes the result row and deletes the queue row (ack).
func (q *Queue) finish(ctx context.Context, id string, attempts int, createdAt int64, resp *render.Response, renderErr error) error {
	var (
		mime          string
		width, height int
		data          []byte
		errMsg        string
	)
	if renderErr != nil {
		errMsg = renderErr.Error()
	} else {
		mime, width, height, data = resp.MimeType, resp.Width, resp.Height, resp.Data
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO render_results
			(id, mime, width, height, data, error, attempts, created_at, completed_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		id, mime, width, height, data, errMsg, attempts, createdAt, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("renderq: store result: %w", err)
	}
	_, err = q.db.ExecContext(ctx, `DELETE FROM render_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("renderq: ack: %w", err)
	}
	return nil
}

// Run polls for jobs and renders them until ctx is cancelled.
func (q *Queue) Run(ctx context.Context, exporter Exporter) {
	log := q.opts.Logger
	log.Info("renderq: worker started",
		"visibility", q.opts.Visibility, "poll", q.opts.PollInterval, "max_attempts", q.opts.MaxAttempts)

	ticker := time.NewTicker(q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("renderq: worker stopped")
			return
		case <-ticker.C:
			q.poll(ctx, exporter, log)
		}
	}
}

func (q *Queue) poll(ctx context.Context, exporter Exporter, log *slog.Logger) {
	for {
		id, payload, attempts, err := q.claim(ctx)
		if err != nil {
			log.Error("renderq: claim failed", "error", err)
			return
		}
		if id == "" {
			return
		}

		var created int64
		_ = q.db.QueryRowContext(ctx, `SELECT created_at FROM render_jobs WHERE id = ?`, id).Scan(&created)

		var req render.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Error("renderq: bad payload, failing job", "id", id, "error", err)
			_ = q.finish(ctx, id, attempts, created, nil, fmt.Errorf("bad payload: %w", err))
			continue
		}

		if attempts > q.opts.MaxAttempts {
			log.Warn("renderq: too many attempts", "id", id, "attempts", attempts)
			_ = q.finish(ctx, id, attempts, created, nil,
				fmt.Errorf("gave up after %d attempts", attempts-1))
			continue
		}

		resp, err := exporter.Export(ctx, req)
		if err != nil {
			// Validation never succeeds on retry; everything else gets
			// another attempt via the visibility timeout.
			if errors.Is(err, render.ErrValidation) || attempts >= q.opts.MaxAttempts {
				if ferr := q.finish(ctx, id, attempts, created, nil, err); ferr != nil {
					log.Error("renderq: finish failed", "id", id, "error", ferr)
				}
			} else {
				log.Warn("renderq: export failed, will retry", "id", id, "attempts", attempts, "error", err)
			}
			continue
		}

		if err := q.finish(ctx, id, attempts, created, resp, nil); err != nil {
			log.Error("renderq: finish failed", "id", id, "error", err)
		}
	}
}

// Len returns the number of queued (unfinished) jobs.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM render_jobs`).Scan(&n)
	return n, err
}
