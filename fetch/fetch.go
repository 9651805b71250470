// Package fetch downloads background images for the render pipeline.
//
// Redirects are followed by hand rather than through http.Client's policy:
// up to 5 hops, with relative Location headers resolved against the URL of
// the hop that issued them. The final bytes are returned with their
// content type and can be re-encoded as a data: URI for inline embedding
// in a render document.
package fetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTooManyRedirects is returned after the hop limit is exhausted.
var ErrTooManyRedirects = errors.New("fetch: too many redirects")

// MaxRedirects is the redirect hop limit.
const MaxRedirects = 5

// Config configures the fetcher.
type Config struct {
	// Timeout covers the whole fetch including redirects. Default: 30s.
	Timeout time.Duration
	// MaxBytes caps the response body size. Default: 20MB.
	MaxBytes int64
	// UserAgent sent with requests.
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 20 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "maquette/1.0"
	}
}

// Result is a fetched resource.
type Result struct {
	Body        []byte
	ContentType string
	FinalURL    string // URL after redirects
}

// DataURI encodes the resource as an inline data: URI.
func (r *Result) DataURI() string {
	ct := r.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(r.Body)
}

// Fetcher downloads resources without following redirects implicitly.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			// Redirects are handled manually so relative Location
			// headers resolve against the right hop.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: cfg,
	}
}

// Fetch downloads rawURL, following up to MaxRedirects hops.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %s: %w", rawURL, err)
	}
	if current.Scheme != "http" && current.Scheme != "https" {
		return nil, fmt.Errorf("fetch: unsupported scheme %q", current.Scheme)
	}

	for hop := 0; hop <= MaxRedirects; hop++ {
		body, ct, redirect, err := f.do(ctx, current)
		if err != nil {
			return nil, err
		}
		if redirect == "" {
			return &Result{Body: body, ContentType: ct, FinalURL: current.String()}, nil
		}
		// Relative Location resolves against the hop that issued it.
		next, err := current.Parse(redirect)
		if err != nil {
			return nil, fmt.Errorf("fetch: bad redirect %q: %w", redirect, err)
		}
		current = next
	}
	return nil, fmt.Errorf("%w: %s", ErrTooManyRedirects, rawURL)
}

// do performs one hop. It returns either the body + content type, or a
// non-empty redirect target.
func (f *Fetcher) do(ctx context.Context, u *url.URL) (body []byte, contentType, redirect string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetch: request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetch: %s: %w", u, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, "", "", fmt.Errorf("fetch: %s: redirect without Location", u)
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", loc, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("fetch: %s: status %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("fetch: read %s: %w", u, err)
	}
	if int64(len(data)) > f.config.MaxBytes {
		return nil, "", "", fmt.Errorf("fetch: %s: body exceeds %d bytes", u, f.config.MaxBytes)
	}

	ct := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, "", nil
}
