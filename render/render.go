package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atelierlab/maquette/element"
	"github.com/atelierlab/maquette/fetch"
)

// Auto-fit bounds: font size shrinks in steps of 2 until the title fits its
// container or hits the floor.
const (
	autoFitStep  = 2.0
	autoFitFloor = 40.0
)

// Badge is a resolved category badge image.
type Badge struct {
	Data []byte
	Mime string
}

// BadgeResolver looks up the badge image for a category key. A not-found
// or failing resolver is recovered with the built-in default badge.
type BadgeResolver interface {
	ResolveCategoryBadge(ctx context.Context, key string) (Badge, error)
}

// Request is one export request (the POST /render contract).
type Request struct {
	BackgroundURL string       `json:"backgroundUrl,omitempty"` // http(s) URL or data: URI
	BgColor       string       `json:"bgColor,omitempty"`
	Title         string       `json:"title"`
	Mode          element.Mode `json:"mode"`
	Format        Format       `json:"format"`
	Quality       Quality      `json:"quality"`
	Scale         float64      `json:"scale"`
	Category      string       `json:"category,omitempty"`
}

// Response is the export result.
type Response struct {
	Data     []byte `json:"-"`
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Config configures a Pipeline.
type Config struct {
	Engine  Engine
	Fetcher *fetch.Fetcher
	Badges  BadgeResolver // optional; default badge is used without one
	// FontPath points at a local bold font file embedded into the
	// document. When missing, RemoteFontURL is referenced instead.
	FontPath string
	// RemoteFontURL is the @font-face fallback source.
	RemoteFontURL string
	// LoadTimeout bounds document load + layout. Default: 30s.
	LoadTimeout time.Duration
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 30 * time.Second
	}
	if c.RemoteFontURL == "" {
		c.RemoteFontURL = "https://cdn.jsdelivr.net/fontsource/fonts/inter@latest/latin-800-normal.woff2"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline converts export requests into raster images. It is stateless;
// one Export call never shares renderer state with another.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg}
}

// Export runs the full pipeline: validate, resolve background and assets,
// build the document, auto-fit the title, rasterize. The engine instance
// for the export is torn down on success and failure alike.
func (p *Pipeline) Export(ctx context.Context, req Request) (*Response, error) {
	scale, err := p.validate(&req)
	if err != nil {
		return nil, err
	}

	log := p.cfg.Logger

	// Step 1: background resolution. Fetch failure is non-fatal; the
	// export proceeds with an empty background.
	background := ""
	if req.Mode == element.ModeVisual && req.BackgroundURL != "" {
		if strings.HasPrefix(req.BackgroundURL, "data:") {
			background = req.BackgroundURL
		} else {
			res, err := p.cfg.Fetcher.Fetch(ctx, req.BackgroundURL)
			if err != nil {
				log.Warn("render: background fetch failed, continuing without image",
					"url", req.BackgroundURL, "error", err)
			} else {
				background = res.DataURI()
			}
		}
	}

	// Step 2: asset resolution.
	badgeURI := p.resolveBadge(ctx, req.Category)
	bannerURI := dataURI(bannerPNG, "image/png")
	fontCSS, fontFamily := p.fontFace()

	// Step 3: layout construction.
	tpl := buildLayout(req.Mode, background, req.BgColor, req.Title, badgeURI, bannerURI, fontFamily)
	doc, err := CompileHTML(tpl, fontCSS)
	if err != nil {
		return nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, p.cfg.LoadTimeout)
	defer cancel()

	page, err := p.cfg.Engine.Load(loadCtx, doc, tpl.CanvasWidth, tpl.CanvasHeight)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, p.cfg.LoadTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer page.Close()

	// Step 4: text auto-fit.
	if err := p.autoFit(loadCtx, page, titleHeight(tpl)); err != nil {
		return nil, err
	}

	// Step 5: rasterization.
	quality, _ := req.Quality.Encoder()
	data, err := page.Capture(ctx, req.Format, quality, scale)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, p.cfg.LoadTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &Response{
		Data:     data,
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: req.Format.MimeType(),
		Width:    int(float64(tpl.CanvasWidth) * scale),
		Height:   int(float64(tpl.CanvasHeight) * scale),
	}, nil
}

// validate rejects bad requests before any external call and returns the
// clamped scale.
func (p *Pipeline) validate(req *Request) (float64, error) {
	switch req.Mode {
	case element.ModeVisual:
		if req.BackgroundURL == "" && req.BgColor == "" {
			return 0, fmt.Errorf("%w: visual mode requires a background", ErrValidation)
		}
	case element.ModeText:
		if req.BgColor == "" {
			req.BgColor = "#10141a"
		}
	default:
		return 0, fmt.Errorf("%w: mode %q", ErrValidation, req.Mode)
	}
	if req.Format == "" {
		req.Format = FormatPNG
	}
	if !req.Format.valid() {
		return 0, fmt.Errorf("%w: format %q", ErrValidation, req.Format)
	}
	if _, err := req.Quality.Encoder(); err != nil {
		return 0, err
	}
	scale := req.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 1 {
		scale = 1
	}
	if scale > 3 {
		scale = 3
	}
	return scale, nil
}

// resolveBadge returns a data: URI for the category badge, falling back to
// the built-in default on any miss or failure.
func (p *Pipeline) resolveBadge(ctx context.Context, category string) string {
	if p.cfg.Badges != nil && category != "" {
		badge, err := p.cfg.Badges.ResolveCategoryBadge(ctx, category)
		if err == nil && len(badge.Data) > 0 {
			return dataURI(badge.Data, badge.Mime)
		}
		if err != nil {
			p.cfg.Logger.Debug("render: badge lookup failed, using default",
				"category", category, "error", err)
		}
	}
	return dataURI(defaultBadgePNG, "image/png")
}

// fontFace returns the @font-face CSS and the family name to reference.
// A readable local font file is embedded; otherwise the remote URL is used.
func (p *Pipeline) fontFace() (css, family string) {
	family = "Maquette Bold"
	src := fmt.Sprintf("url(%s)", p.cfg.RemoteFontURL)
	if p.cfg.FontPath != "" {
		if data, err := os.ReadFile(p.cfg.FontPath); err == nil {
			src = fmt.Sprintf("url(%s)", dataURI(data, "font/woff2"))
		} else {
			p.cfg.Logger.Debug("render: local font unavailable, using remote",
				"path", p.cfg.FontPath, "error", err)
		}
	}
	css = fmt.Sprintf("@font-face{font-family:'%s';font-weight:800;src:%s;}", family, src)
	return css, family
}

// autoFit shrinks the title font until the rendered content fits its
// container or the floor is reached, so long headlines never overflow.
func (p *Pipeline) autoFit(ctx context.Context, page Page, containerHeight float64) error {
	size := float64(initialTitleSize)
	for {
		h, err := page.MeasureHeight(ctx, titleSelector)
		if err != nil {
			return fmt.Errorf("%w: measure title: %v", ErrEncode, err)
		}
		if h <= containerHeight || size <= autoFitFloor {
			return nil
		}
		size -= autoFitStep
		if size < autoFitFloor {
			size = autoFitFloor
		}
		if err := page.SetFontSize(ctx, titleSelector, size); err != nil {
			return fmt.Errorf("%w: set font size: %v", ErrEncode, err)
		}
	}
}

// titleHeight reads the title container height back out of the layout.
func titleHeight(tpl *element.Template) float64 {
	for _, e := range tpl.Elements {
		if e.ID == idTitle {
			return e.Height
		}
	}
	return 0
}

func dataURI(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
