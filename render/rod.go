package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodConfig configures the headless Chrome engine.
type RodConfig struct {
	// Bin is the Chrome binary path. Empty = let the launcher resolve it.
	Bin string
	// NoSandbox disables the Chrome sandbox (required in most containers).
	NoSandbox bool
	Logger    *slog.Logger
}

// RodEngine launches a fresh headless Chrome per export. Chrome holds
// process-global font and document state, so instances are never shared
// between exports: Load starts one, Page.Close tears it down.
type RodEngine struct {
	cfg RodConfig
}

// NewRodEngine creates the production engine.
func NewRodEngine(cfg RodConfig) *RodEngine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RodEngine{cfg: cfg}
}

// Load launches Chrome, loads the document at the given viewport, and waits
// for layout and fonts.
func (e *RodEngine) Load(ctx context.Context, html string, width, height int) (Page, error) {
	l := launcher.New().Context(ctx).Headless(true)
	if e.cfg.Bin != "" {
		l = l.Bin(e.cfg.Bin)
	}
	if e.cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("render: launch chrome: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("render: connect chrome: %w", err)
	}

	p := &rodPage{browser: browser, lnch: l, logger: e.cfg.Logger}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("render: open page: %w", err)
	}
	p.page = page

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}).Call(page); err != nil {
		p.Close()
		return nil, fmt.Errorf("render: set viewport: %w", err)
	}

	if err := page.Context(ctx).SetDocumentContent(html); err != nil {
		p.Close()
		return nil, fmt.Errorf("render: load document: %w", err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		p.Close()
		return nil, fmt.Errorf("render: wait load: %w", err)
	}
	// Screenshots taken before webfonts finish decoding show fallback
	// glyphs; fonts.ready resolves once layout uses the real face.
	if _, err := page.Context(ctx).Eval(`() => document.fonts.ready.then(() => true)`); err != nil {
		e.cfg.Logger.Debug("render: fonts.ready wait failed", "error", err)
	}

	return p, nil
}

type rodPage struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	logger  *slog.Logger
}

func (p *rodPage) MeasureHeight(ctx context.Context, selector string) (float64, error) {
	res, err := p.page.Context(ctx).Eval(`(sel) => {
		const el = document.querySelector(sel);
		return el ? el.scrollHeight : 0;
	}`, selector)
	if err != nil {
		return 0, fmt.Errorf("render: measure %s: %w", selector, err)
	}
	return res.Value.Num(), nil
}

func (p *rodPage) SetFontSize(ctx context.Context, selector string, size float64) error {
	_, err := p.page.Context(ctx).Eval(`(sel, size) => {
		const el = document.querySelector(sel);
		if (el) el.style.fontSize = size + 'px';
	}`, selector, size)
	if err != nil {
		return fmt.Errorf("render: set font size on %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Capture(ctx context.Context, format Format, quality int, scale float64) ([]byte, error) {
	width, height, err := p.viewport(ctx)
	if err != nil {
		return nil, err
	}
	// The device scale factor multiplies the captured pixel dimensions
	// while the CSS layout stays at canvas size.
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: scale,
	}).Call(p.page.Context(ctx)); err != nil {
		return nil, fmt.Errorf("render: set capture scale: %w", err)
	}

	req := &proto.PageCaptureScreenshot{FromSurface: true}
	switch format {
	case FormatJPG:
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = &quality
	case FormatWebP:
		req.Format = proto.PageCaptureScreenshotFormatWebp
		req.Quality = &quality
	default:
		req.Format = proto.PageCaptureScreenshotFormatPng
	}

	data, err := p.page.Context(ctx).Screenshot(false, req)
	if err != nil {
		return nil, fmt.Errorf("render: screenshot: %w", err)
	}
	return data, nil
}

func (p *rodPage) viewport(ctx context.Context) (int, int, error) {
	res, err := p.page.Context(ctx).Eval(`() => [window.innerWidth, window.innerHeight]`)
	if err != nil {
		return 0, 0, fmt.Errorf("render: read viewport: %w", err)
	}
	arr := res.Value.Arr()
	if len(arr) != 2 {
		return 0, 0, fmt.Errorf("render: read viewport: unexpected result %v", res.Value)
	}
	return arr[0].Int(), arr[1].Int(), nil
}

// Close tears down the page, browser, and launched Chrome process. Safe to
// call with a partially constructed page.
func (p *rodPage) Close() error {
	if p.page != nil {
		if err := p.page.Close(); err != nil {
			p.logger.Debug("render: page close", "error", err)
		}
		p.page = nil
	}
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			p.logger.Debug("render: browser close", "error", err)
		}
		p.browser = nil
	}
	if p.lnch != nil {
		p.lnch.Cleanup()
		p.lnch = nil
	}
	return nil
}
