// Package render converts a template snapshot into a raster image.
//
// The pipeline is stateless and runs once per export: resolve the
// background and assets, build a fixed-layout HTML document from the
// element model, auto-fit the title text, and capture a screenshot at the
// requested scale and format. The actual rasterizer sits behind the Engine
// interface; production uses a fresh headless Chrome per export (rod.go),
// tests use a fake.
package render

import (
	"context"
	"errors"
	"fmt"
)

// Export errors, mapped to HTTP status codes by the dashboard.
var (
	// ErrValidation rejects a request before any external call is made.
	ErrValidation = errors.New("render: invalid request")
	// ErrTimeout reports a document load exceeding the configured limit.
	ErrTimeout = errors.New("render: document load timed out")
	// ErrEncode reports a rasterization or encoding failure.
	ErrEncode = errors.New("render: encode failed")
)

// Format is the export image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatWebP Format = "webp"
)

// MimeType returns the MIME type for the format.
func (f Format) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}

func (f Format) valid() bool {
	switch f {
	case FormatPNG, FormatJPG, FormatWebP:
		return true
	}
	return false
}

// Quality names the encoder quality tiers.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Encoder returns the encoder quality value for lossy formats.
func (q Quality) Encoder() (int, error) {
	switch q {
	case QualityLow:
		return 60, nil
	case QualityMedium:
		return 80, nil
	case QualityHigh, "":
		return 95, nil
	}
	return 0, fmt.Errorf("%w: quality %q", ErrValidation, q)
}

// Engine produces one rasterizable page per export. Load owns the whole
// underlying instance: closing the returned Page must tear everything down,
// success or failure, so no renderer state leaks between exports.
type Engine interface {
	Load(ctx context.Context, html string, width, height int) (Page, error)
}

// Page is one loaded document.
type Page interface {
	// MeasureHeight returns the rendered content height of the first node
	// matching the CSS selector.
	MeasureHeight(ctx context.Context, selector string) (float64, error)
	// SetFontSize overrides font-size (in px) on the matched node.
	SetFontSize(ctx context.Context, selector string, size float64) error
	// Capture screenshots the viewport at the given device scale.
	// quality is ignored for png.
	Capture(ctx context.Context, format Format, quality int, scale float64) ([]byte, error)
	// Close releases the page and its engine instance. Always called,
	// on success and failure paths alike.
	Close() error
}
