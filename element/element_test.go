package element_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/atelierlab/maquette/element"
)

func TestNewDefaults(t *testing.T) {
	for _, kind := range element.Kinds() {
		el, err := element.New(kind)
		if err != nil {
			t.Fatalf("New(%s): %v", kind, err)
		}
		if el.Props == nil {
			t.Fatalf("New(%s): nil props", kind)
		}
		if el.Props.Kind() != kind {
			t.Fatalf("New(%s): props kind %s", kind, el.Props.Kind())
		}
		if el.Opacity != 100 {
			t.Fatalf("New(%s): opacity %v, want 100", kind, el.Opacity)
		}
		if !el.Visible {
			t.Fatalf("New(%s): not visible", kind)
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := element.New("triangle")
	if !errors.Is(err, element.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

// WHAT: marshal then unmarshal an element of every kind and compare.
// WHY: history snapshots are JSON; a lossy codec would corrupt undo.
func TestJSONRoundTrip(t *testing.T) {
	for _, kind := range element.Kinds() {
		el, err := element.New(kind)
		if err != nil {
			t.Fatal(err)
		}
		el.ID = "el_1"
		el.Name = "Layer"
		el.X, el.Y = 12.5, -3
		el.Width, el.Height = 200, 100
		el.ZIndex = 4
		el.Opacity = 72
		el.Rotation = 15
		el.Locked = true

		data, err := json.Marshal(el)
		if err != nil {
			t.Fatalf("marshal %s: %v", kind, err)
		}
		if !strings.Contains(string(data), `"kind":"`+string(kind)+`"`) {
			t.Fatalf("wire form of %s missing discriminator: %s", kind, data)
		}

		var back element.Element
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", kind, err)
		}
		if !reflect.DeepEqual(el, back) {
			t.Fatalf("%s round trip mismatch:\n got %+v\nwant %+v", kind, back, el)
		}
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	// An unknown kind is an error, not a silently dropped layer.
	raw := `{"id":"el_1","kind":"hologram","props":{}}`
	var el element.Element
	err := json.Unmarshal([]byte(raw), &el)
	if !errors.Is(err, element.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestNormalizeClampsOpacity(t *testing.T) {
	el, _ := element.New(element.KindRect)
	el.Opacity = 150
	if got := el.Normalize().Opacity; got != 100 {
		t.Fatalf("got %v, want 100", got)
	}
	el.Opacity = -10
	if got := el.Normalize().Opacity; got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestNormalizeFillsVariantDefaults(t *testing.T) {
	img, _ := element.New(element.KindImage)
	p := img.Props.(element.Image)
	p.ObjectFit = ""
	img.Props = p
	if got := img.Normalize().Props.(element.Image).ObjectFit; got != "contain" {
		t.Fatalf("got objectFit %q, want contain", got)
	}

	txt, _ := element.New(element.KindText)
	tp := txt.Props.(element.Text)
	tp.LineHeight = 0
	txt.Props = tp
	if got := txt.Normalize().Props.(element.Text).LineHeight; got != 1.2 {
		t.Fatalf("got lineHeight %v, want 1.2", got)
	}
}

func TestValidate(t *testing.T) {
	valid, _ := element.New(element.KindText)
	valid.ID = "el_ok"

	cases := []struct {
		name   string
		mutate func(*element.Element)
	}{
		{"missing id", func(e *element.Element) { e.ID = "" }},
		{"negative size", func(e *element.Element) { e.Width = -1 }},
		{"nil props", func(e *element.Element) { e.Props = nil }},
		{"zero font size", func(e *element.Element) {
			p := e.Props.(element.Text)
			p.FontSize = 0
			e.Props = p
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			el := valid
			tc.mutate(&el)
			if err := el.Validate(); !errors.Is(err, element.ErrInvalid) {
				t.Fatalf("got %v, want ErrInvalid", err)
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid element rejected: %v", err)
	}
}

// WHAT: NormalizeZ over sparse, duplicated z-indexes.
// WHY: paint order must stay a dense 1..N permutation with ties kept in
// insertion order, so list order and stacking never disagree.
func TestNormalizeZ(t *testing.T) {
	mk := func(id string, z int) element.Element {
		el, _ := element.New(element.KindRect)
		el.ID = id
		el.ZIndex = z
		return el
	}
	elems := []element.Element{mk("a", 7), mk("b", 2), mk("c", 7), mk("d", 0)}
	element.NormalizeZ(elems)

	wantOrder := []string{"d", "b", "a", "c"}
	for i, want := range wantOrder {
		if elems[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, elems[i].ID, want)
		}
		if elems[i].ZIndex != i+1 {
			t.Fatalf("position %d: z %d, want %d", i, elems[i].ZIndex, i+1)
		}
	}
}

func TestTemplateValidate(t *testing.T) {
	el, _ := element.New(element.KindRect)
	el.ID = "el_1"

	tpl := &element.Template{
		CanvasWidth:  element.CanvasWidth,
		CanvasHeight: element.CanvasHeight,
		Mode:         element.ModeVisual,
		Elements:     []element.Element{el},
	}
	// Visual mode with neither background resource nor color.
	if err := tpl.Validate(); !errors.Is(err, element.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
	tpl.BackgroundColor = "#112233"
	if err := tpl.Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	dup := el
	tpl.Elements = append(tpl.Elements, dup)
	if err := tpl.Validate(); !errors.Is(err, element.ErrInvalid) {
		t.Fatalf("duplicate id: got %v, want ErrInvalid", err)
	}
}

func TestTemplateClone(t *testing.T) {
	el, _ := element.New(element.KindSolid)
	el.ID = "el_1"
	tpl := &element.Template{
		CanvasWidth: 100, CanvasHeight: 100,
		Mode: element.ModeText, BackgroundColor: "#000",
		Elements: []element.Element{el},
	}
	cp := tpl.Clone()
	cp.Elements[0].X = 99
	if tpl.Elements[0].X == 99 {
		t.Fatal("clone aliases the original element slice")
	}
}
