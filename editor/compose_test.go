package editor_test

import (
	"strings"
	"testing"

	"github.com/atelierlab/maquette/editor"
	"github.com/atelierlab/maquette/element"
)

func TestAddDefaults(t *testing.T) {
	s := newSession(t)

	first, err := s.Add(element.KindImage, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "Image 1" {
		t.Fatalf("got name %q, want Image 1", first.Name)
	}
	if first.X != 40 || first.Y != 40 || first.Width != 200 || first.Height != 200 {
		t.Fatalf("default geometry %+v", first)
	}
	if !s.IsSelected(first.ID) {
		t.Fatal("added element should be selected")
	}

	// Per-kind counters: a second image counts up, a text element starts
	// its own series with text-sized defaults.
	second, err := s.Add(element.KindImage, nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "Image 2" {
		t.Fatalf("got name %q, want Image 2", second.Name)
	}
	txt, err := s.Add(element.KindText, nil)
	if err != nil {
		t.Fatal(err)
	}
	if txt.Name != "Text 1" {
		t.Fatalf("got name %q, want Text 1", txt.Name)
	}
	if txt.Width != 400 || txt.Height != 100 {
		t.Fatalf("text defaults %vx%v, want 400x100", txt.Width, txt.Height)
	}

	// New elements stack on top.
	if txt.ZIndex != 3 {
		t.Fatalf("got z=%d, want 3", txt.ZIndex)
	}
}

func TestAddOverrideKeepsIdentity(t *testing.T) {
	s := newSession(t)

	el, err := s.Add(element.KindRect, func(e *element.Element) {
		e.X, e.Y = 500, 600
		e.ID = "hijacked"
		e.ZIndex = 99
	})
	if err != nil {
		t.Fatal(err)
	}
	if el.X != 500 || el.Y != 600 {
		t.Fatalf("override geometry lost: %+v", el)
	}
	if el.ID == "hijacked" {
		t.Fatal("override must not change the assigned id")
	}
	if el.ZIndex != 1 {
		t.Fatalf("override changed stacking: z=%d", el.ZIndex)
	}
}

func TestDuplicate(t *testing.T) {
	s := newSession(t, rect(t, "a", 100, 100, 50, 50))

	cp, err := s.Duplicate("a")
	if err != nil {
		t.Fatal(err)
	}
	if cp.ID == "a" {
		t.Fatal("duplicate must get a fresh id")
	}
	if cp.X != 120 || cp.Y != 120 {
		t.Fatalf("got (%v,%v), want +20 offset", cp.X, cp.Y)
	}
	if !strings.HasSuffix(cp.Name, " (copy)") {
		t.Fatalf("got name %q, want (copy) suffix", cp.Name)
	}
	if !s.IsSelected(cp.ID) {
		t.Fatal("duplicate should be selected")
	}
	if cp.ZIndex != 2 {
		t.Fatalf("got z=%d, want top of stack", cp.ZIndex)
	}
}

func TestDelete(t *testing.T) {
	s := newSession(t, rect(t, "a", 0, 0, 10, 10), rect(t, "b", 0, 0, 10, 10))
	s.Select("a", false)

	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if len(s.Template().Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(s.Template().Elements))
	}
	if s.IsSelected("a") {
		t.Fatal("deleted element still selected")
	}
	if err := s.Delete("a"); err == nil {
		t.Fatal("double delete accepted")
	}
}

func TestReorder(t *testing.T) {
	s := newSession(t,
		rect(t, "a", 0, 0, 10, 10),
		rect(t, "b", 0, 0, 10, 10),
		rect(t, "c", 0, 0, 10, 10),
	)

	if err := s.Reorder("a", editor.DirUp); err != nil {
		t.Fatal(err)
	}
	order := func() []string {
		out := make([]string, 0, 3)
		for _, e := range s.Template().Elements {
			out = append(out, e.ID)
		}
		return out
	}
	if got := order(); got[0] != "b" || got[1] != "a" {
		t.Fatalf("got order %v, want [b a c]", got)
	}
	// The swap keeps z dense and matching list order.
	for i, e := range s.Template().Elements {
		if e.ZIndex != i+1 {
			t.Fatalf("position %d has z=%d", i, e.ZIndex)
		}
	}

	// Edge moves are no-ops, not errors.
	before := s.History().Len()
	if err := s.Reorder("c", editor.DirUp); err != nil {
		t.Fatal(err)
	}
	if got := order(); got[2] != "c" {
		t.Fatalf("top element moved: %v", got)
	}
	if s.History().Len() != before {
		t.Fatal("edge reorder must not commit")
	}
}

func TestToggleVisible(t *testing.T) {
	s := newSession(t, rect(t, "a", 0, 0, 10, 10))
	if err := s.ToggleVisible("a"); err != nil {
		t.Fatal(err)
	}
	if mustFind(t, s, "a").Visible {
		t.Fatal("element should be hidden")
	}
	if err := s.ToggleVisible("a"); err != nil {
		t.Fatal(err)
	}
	if !mustFind(t, s, "a").Visible {
		t.Fatal("element should be visible again")
	}
}

func TestCopyPaste(t *testing.T) {
	s := newSession(t, rect(t, "a", 100, 100, 50, 50))

	// Paste with an empty clipboard is a silent no-op.
	before := s.History().Len()
	if _, err := s.Paste(); err != nil {
		t.Fatal(err)
	}
	if s.History().Len() != before {
		t.Fatal("empty paste must not commit")
	}

	if err := s.Copy("a"); err != nil {
		t.Fatal(err)
	}
	pasted, err := s.Paste()
	if err != nil {
		t.Fatal(err)
	}
	if pasted.ID == "a" {
		t.Fatal("paste must mint a fresh id")
	}
	if pasted.X != 120 || pasted.Y != 120 {
		t.Fatalf("got (%v,%v), want +20 offset", pasted.X, pasted.Y)
	}

	// The clipboard survives edits to the source: deleting the original
	// does not invalidate a later paste.
	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	again, err := s.Paste()
	if err != nil {
		t.Fatal(err)
	}
	if again.ID == pasted.ID {
		t.Fatal("second paste reused an id")
	}
}

func TestCommandDispatch(t *testing.T) {
	s := newSession(t, rect(t, "a", 100, 100, 50, 50))

	cmds := []editor.Command{
		editor.SelectElement{ID: "a"},
		editor.BeginDrag{ID: "a"},
		editor.Drag{X: 200, Y: 200},
		editor.EndDrag{},
		editor.AddElement{Kind: element.KindCircle},
		editor.Undo{},
		editor.Redo{},
		editor.ClearSelection{},
	}
	for _, c := range cmds {
		if err := s.Dispatch(c); err != nil {
			t.Fatalf("%T: %v", c, err)
		}
	}

	if got := mustFind(t, s, "a"); got.X != 200 {
		t.Fatalf("dispatched drag did not land: x=%v", got.X)
	}
	if len(s.Template().Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(s.Template().Elements))
	}
}
