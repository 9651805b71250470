package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atelierlab/maquette/element"
)

// TemplateRecord is a stored template with its metadata.
type TemplateRecord struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Template  *element.Template `json:"template"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// SaveTemplate inserts a template and returns its id.
func (s *Store) SaveTemplate(ctx context.Context, name string, tpl *element.Template) (string, error) {
	if err := tpl.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return "", fmt.Errorf("store: encode template: %w", err)
	}
	id := "tpl_" + s.newID()
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, data, created_at, updated_at) VALUES (?,?,?,?,?)`,
		id, name, string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("store: save template: %w", err)
	}
	return id, nil
}

// UpdateTemplate replaces a stored template's name and content.
func (s *Store) UpdateTemplate(ctx context.Context, id, name string, tpl *element.Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("store: encode template: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE templates SET name = ?, data = ?, updated_at = ? WHERE id = ?`,
		name, string(data), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("store: update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	return nil
}

// LoadTemplate fetches one template by id.
func (s *Store) LoadTemplate(ctx context.Context, id string) (*TemplateRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, data, created_at, updated_at FROM templates WHERE id = ?`, id)
	return scanTemplate(row)
}

// ListTemplates returns all templates, newest first.
func (s *Store) ListTemplates(ctx context.Context) ([]*TemplateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, data, created_at, updated_at FROM templates ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	defer rows.Close()

	var out []*TemplateRecord
	for rows.Next() {
		rec, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*TemplateRecord, error) {
	var rec TemplateRecord
	var data string
	var created, updated int64
	err := row.Scan(&rec.ID, &rec.Name, &data, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: template", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan template: %w", err)
	}
	var tpl element.Template
	if err := json.Unmarshal([]byte(data), &tpl); err != nil {
		return nil, fmt.Errorf("store: decode template %s: %w", rec.ID, err)
	}
	rec.Template = &tpl
	rec.CreatedAt = time.Unix(created, 0)
	rec.UpdatedAt = time.Unix(updated, 0)
	return &rec, nil
}
