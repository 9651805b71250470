package store_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/atelierlab/maquette/dbopen"
	"github.com/atelierlab/maquette/element"
	"github.com/atelierlab/maquette/store"
)

// tinyPNG is a valid 1x1 PNG used as upload fixture.
var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	s := store.New(db)
	if err := s.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func testTemplate(t *testing.T) *element.Template {
	t.Helper()
	el, err := element.New(element.KindText)
	if err != nil {
		t.Fatal(err)
	}
	el.ID = "el_title"
	el.Width, el.Height = 400, 100
	return &element.Template{
		CanvasWidth:     element.CanvasWidth,
		CanvasHeight:    element.CanvasHeight,
		Mode:            element.ModeText,
		BackgroundColor: "#10141a",
		Elements:        []element.Element{el},
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.SaveTemplate(ctx, "Launch post", testTemplate(t))
	if err != nil {
		t.Fatal(err)
	}

	rec, err := s.LoadTemplate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Launch post" {
		t.Fatalf("got name %q", rec.Name)
	}
	if len(rec.Template.Elements) != 1 || rec.Template.Elements[0].ID != "el_title" {
		t.Fatalf("template content lost: %+v", rec.Template)
	}
	if _, ok := rec.Template.Elements[0].Props.(element.Text); !ok {
		t.Fatalf("props variant lost: %T", rec.Template.Elements[0].Props)
	}
}

func TestSaveTemplateValidates(t *testing.T) {
	s := newStore(t)
	bad := testTemplate(t)
	bad.CanvasWidth = 0
	if _, err := s.SaveTemplate(context.Background(), "bad", bad); !errors.Is(err, element.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestUpdateAndDeleteTemplate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.SaveTemplate(ctx, "v1", testTemplate(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateTemplate(ctx, id, "v2", testTemplate(t)); err != nil {
		t.Fatal(err)
	}
	rec, err := s.LoadTemplate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "v2" {
		t.Fatalf("got name %q, want v2", rec.Name)
	}

	if err := s.UpdateTemplate(ctx, "tpl_missing", "x", testTemplate(t)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := s.DeleteTemplate(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadTemplate(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListTemplates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := s.SaveTemplate(ctx, fmt.Sprintf("t%d", i), testTemplate(t)); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListTemplates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d templates, want 3", len(list))
	}
}

func TestUploadImage(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, err := s.UploadImage(ctx, tinyPNG)
	if err != nil {
		t.Fatal(err)
	}
	if a.Mime != "image/png" {
		t.Fatalf("got mime %q", a.Mime)
	}
	if a.Width != 1 || a.Height != 1 {
		t.Fatalf("got %dx%d, want 1x1", a.Width, a.Height)
	}
	if a.URL() != "/api/assets/"+a.ID {
		t.Fatalf("got url %q", a.URL())
	}

	loaded, err := s.Asset(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Data) != len(tinyPNG) {
		t.Fatalf("asset bytes truncated: %d", len(loaded.Data))
	}

	// Non-image uploads are rejected before touching the database.
	if _, err := s.UploadImage(ctx, []byte("<svg/>")); err == nil {
		t.Fatal("non-raster upload accepted")
	}
}

func TestCategories(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.SaveCategory(ctx, &store.Category{Key: "tech", Name: "Technology"}); err != nil {
		t.Fatal(err)
	}
	// Upsert on the same key.
	if err := s.SaveCategory(ctx, &store.Category{Key: "tech", Name: "Tech"}); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Tech" {
		t.Fatalf("got %+v", list)
	}

	if err := s.SaveCategory(ctx, &store.Category{Key: "", Name: "x"}); err == nil {
		t.Fatal("empty key accepted")
	}
	if err := s.DeleteCategory(ctx, "tech"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCategory(ctx, "tech"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// WHAT: badge resolution across missing category, category without badge,
// and a properly linked badge asset.
// WHY: every miss maps to ErrNotFound so the render pipeline can fall back
// to its default badge with one errors.Is check.
func TestResolveCategoryBadge(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.ResolveCategoryBadge(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing category: got %v, want ErrNotFound", err)
	}

	if err := s.SaveCategory(ctx, &store.Category{Key: "plain", Name: "Plain"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ResolveCategoryBadge(ctx, "plain"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("badge-less category: got %v, want ErrNotFound", err)
	}

	a, err := s.UploadImage(ctx, tinyPNG)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCategory(ctx, &store.Category{Key: "tech", Name: "Tech", BadgeID: a.ID}); err != nil {
		t.Fatal(err)
	}
	badge, err := s.ResolveCategoryBadge(ctx, "tech")
	if err != nil {
		t.Fatal(err)
	}
	if badge.ID != a.ID || badge.Mime != "image/png" {
		t.Fatalf("got %+v", badge)
	}
}
