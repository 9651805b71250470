package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Category groups templates and carries an optional badge image.
type Category struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	BadgeID   string    `json:"badgeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveCategory inserts or replaces a category.
func (s *Store) SaveCategory(ctx context.Context, c *Category) error {
	if c.Key == "" || c.Name == "" {
		return fmt.Errorf("store: category needs key and name")
	}
	badge := sql.NullString{String: c.BadgeID, Valid: c.BadgeID != ""}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (key, name, badge_id, created_at) VALUES (?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET name = excluded.name, badge_id = excluded.badge_id`,
		c.Key, c.Name, badge, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: save category: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by key.
func (s *Store) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, badge_id, created_at FROM categories ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("store: list categories: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		var c Category
		var badge sql.NullString
		var created int64
		if err := rows.Scan(&c.Key, &c.Name, &badge, &created); err != nil {
			return nil, fmt.Errorf("store: scan category: %w", err)
		}
		c.BadgeID = badge.String
		c.CreatedAt = time.Unix(created, 0)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteCategory removes a category.
func (s *Store) DeleteCategory(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("store: delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: category %s", ErrNotFound, key)
	}
	return nil
}

// ResolveCategoryBadge looks up the badge asset for a category key.
// Returns ErrNotFound when the category is missing, has no badge, or the
// badge asset is gone; callers fall back to the default badge.
func (s *Store) ResolveCategoryBadge(ctx context.Context, key string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT badge_id FROM categories WHERE key = ?`, key)
	var badge sql.NullString
	err := row.Scan(&badge)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("store: resolve badge: %w", err)
	}
	if !badge.Valid || badge.String == "" {
		return nil, fmt.Errorf("%w: category %s has no badge", ErrNotFound, key)
	}
	return s.Asset(ctx, badge.String)
}
