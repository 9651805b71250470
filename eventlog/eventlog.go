// Package eventlog records export activity in SQLite for the dashboard's
// usage views. Writes are best-effort: a failing log store must never block
// or fail an export.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelierlab/maquette/idgen"
)

// ExportEvent is one recorded export request.
type ExportEvent struct {
	TemplateID string
	Category   string
	Mode       string
	Format     string
	Scale      float64
	DurationMS int64
	Success    bool
	Error      string
}

// Logger writes export events.
type Logger struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Logger.
type Option func(*Logger)

// WithIDGenerator sets a custom ID generator for event IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *Logger) { l.newID = gen }
}

// New creates a Logger over the given database.
func New(db *sql.DB, opts ...Option) *Logger {
	l := &Logger{db: db, newID: idgen.Prefixed("evt_", idgen.Default)}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Init creates the schema.
func (l *Logger) Init(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS export_events (
			event_id    TEXT PRIMARY KEY,
			template_id TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			mode        TEXT NOT NULL DEFAULT '',
			format      TEXT NOT NULL DEFAULT '',
			scale       REAL NOT NULL DEFAULT 1,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			success     INTEGER NOT NULL DEFAULT 0,
			error       TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_export_events_created ON export_events (created_at);
	`)
	if err != nil {
		return fmt.Errorf("eventlog: init schema: %w", err)
	}
	return nil
}

// LogExport records one export. Errors are logged via slog but not
// propagated.
func (l *Logger) LogExport(ctx context.Context, ev ExportEvent) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO export_events (
			event_id, template_id, category, mode, format, scale,
			duration_ms, success, error, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		l.newID(), ev.TemplateID, ev.Category, ev.Mode, ev.Format, ev.Scale,
		ev.DurationMS, ev.Success, ev.Error, time.Now().Unix())
	if err != nil {
		slog.Error("eventlog: export event write failed", "error", err)
	}
}

// Cleanup deletes events older than the retention window.
func (l *Logger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM export_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("eventlog: cleanup: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
