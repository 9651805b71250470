package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atelierlab/maquette/fetch"
)

func TestFetchDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "png-bytes" {
		t.Fatalf("got body %q", res.Body)
	}
	// Content type parameters are stripped.
	if res.ContentType != "image/png" {
		t.Fatalf("got content type %q, want image/png", res.ContentType)
	}
	if res.FinalURL != srv.URL {
		t.Fatalf("got final url %q, want %q", res.FinalURL, srv.URL)
	}
}

// WHAT: a chain of 5 redirects, the last with a relative Location.
// WHY: 5 hops is the limit and must succeed; relative targets resolve
// against the hop that issued them, not the original URL.
func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for i := 0; i < 4; i++ {
		next := fmt.Sprintf("%s/hop%d", srv.URL, i+1)
		mux.HandleFunc(fmt.Sprintf("/hop%d", i), func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, next, http.StatusFound)
		})
	}
	mux.HandleFunc("/hop4", func(w http.ResponseWriter, r *http.Request) {
		// Relative redirect: resolves against /hop4.
		w.Header().Set("Location", "final")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("arrived"))
	})

	f := fetch.New(fetch.Config{})
	res, err := f.Fetch(context.Background(), srv.URL+"/hop0")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Body) != "arrived" {
		t.Fatalf("got %q, want arrived", res.Body)
	}
	if !strings.HasSuffix(res.FinalURL, "/final") {
		t.Fatalf("final url %q", res.FinalURL)
	}
}

func TestFetchTooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{})
	_, err := f.Fetch(context.Background(), srv.URL+"/loop")
	if !errors.Is(err, fetch.ErrTooManyRedirects) {
		t.Fatalf("got %v, want ErrTooManyRedirects", err)
	}
}

func TestFetchRejectsBadInput(t *testing.T) {
	f := fetch.New(fetch.Config{})

	if _, err := f.Fetch(context.Background(), "ftp://example.com/x"); err == nil {
		t.Fatal("ftp scheme accepted")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("404 accepted")
	}
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{MaxBytes: 1024})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("oversized body accepted")
	}
}

func TestDataURI(t *testing.T) {
	res := &fetch.Result{Body: []byte{1, 2, 3}, ContentType: "image/webp"}
	uri := res.DataURI()
	if !strings.HasPrefix(uri, "data:image/webp;base64,") {
		t.Fatalf("got %q", uri)
	}

	// Unknown content type falls back to octet-stream.
	res = &fetch.Result{Body: []byte("x")}
	if !strings.HasPrefix(res.DataURI(), "data:application/octet-stream;base64,") {
		t.Fatalf("got %q", res.DataURI())
	}
}
