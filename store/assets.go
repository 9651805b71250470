package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Asset is a stored image with its decoded metadata.
type Asset struct {
	ID        string    `json:"id"`
	Mime      string    `json:"mime"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// URL returns the serving path for the asset.
func (a *Asset) URL() string { return "/api/assets/" + a.ID }

// mimeByFormat maps image.DecodeConfig format names to MIME types.
var mimeByFormat = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// UploadImage validates and stores raw image bytes. Anything that does not
// decode as png/jpeg/gif/webp is rejected.
func (s *Store) UploadImage(ctx context.Context, data []byte) (*Asset, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store: not a supported image: %w", err)
	}
	mime, ok := mimeByFormat[format]
	if !ok {
		return nil, fmt.Errorf("store: unsupported image format %q", format)
	}

	a := &Asset{
		ID:        "ast_" + s.newID(),
		Mime:      mime,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Data:      data,
		CreatedAt: time.Now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assets (id, mime, width, height, data, created_at) VALUES (?,?,?,?,?,?)`,
		a.ID, a.Mime, a.Width, a.Height, a.Data, a.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("store: save asset: %w", err)
	}
	return a, nil
}

// Asset fetches one asset by id, including its bytes.
func (s *Store) Asset(ctx context.Context, id string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mime, width, height, data, created_at FROM assets WHERE id = ?`, id)
	var a Asset
	var created int64
	err := row.Scan(&a.ID, &a.Mime, &a.Width, &a.Height, &a.Data, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: asset %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load asset: %w", err)
	}
	a.CreatedAt = time.Unix(created, 0)
	return &a, nil
}

// DeleteAsset removes an asset. Categories pointing at it fall back to the
// default badge via the ON DELETE SET NULL reference.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: asset %s", ErrNotFound, id)
	}
	return nil
}
