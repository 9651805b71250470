// Package element defines the layer data model for maquette templates.
//
// A Template is a fixed-size canvas with an ordered stack of Elements.
// Each Element carries the common geometry fields plus one variant-specific
// Props value (gradient, image, text, solid, rect, circle, line). Props is a
// sealed union: every consumer (renderer, editor, codec) type-switches over
// the concrete variants and treats an unknown variant as an error, so adding
// a variant surfaces every call site that needs updating.
//
// Elements are value types. Mutation is whole-record replace: copy the
// Element, change the copy, write it back. History snapshots therefore never
// alias live state.
package element

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalid is returned when an element or template fails validation.
var ErrInvalid = errors.New("element: invalid")

// Kind discriminates the element variants.
type Kind string

const (
	KindGradient Kind = "gradient"
	KindImage    Kind = "image"
	KindText     Kind = "text"
	KindSolid    Kind = "solid"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
	KindLine     Kind = "line"
)

// Kinds lists every variant, in default palette order.
func Kinds() []Kind {
	return []Kind{KindGradient, KindImage, KindText, KindSolid, KindRect, KindCircle, KindLine}
}

// Props is the variant-specific payload of an element. The union is sealed:
// only the types in this package implement it.
type Props interface {
	Kind() Kind
	sealed()
}

// Gradient is a linear gradient overlay.
type Gradient struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Direction string `json:"direction"` // CSS direction, e.g. "to top"
}

// Image is a bitmap layer referencing an external or inline resource.
type Image struct {
	Src       string `json:"src"`
	ObjectFit string `json:"objectFit"` // contain | cover | fill
}

// Text is a styled text block.
type Text struct {
	Text          string  `json:"text"`
	FontFamily    string  `json:"fontFamily"`
	FontWeight    string  `json:"fontWeight"`
	FontSize      float64 `json:"fontSize"`
	Color         string  `json:"color"`
	LineHeight    float64 `json:"lineHeight"`
	LetterSpacing float64 `json:"letterSpacing"`
	TextAlign     string  `json:"textAlign"`
	TextTransform string  `json:"textTransform"`
	Shadow        bool    `json:"shadow"`
}

// Solid is a full-bleed color fill.
type Solid struct {
	Color string `json:"color"`
}

// Rect is a rectangle with optional stroke and rounded corners.
type Rect struct {
	Fill         string  `json:"fill"`
	Stroke       string  `json:"stroke"`
	StrokeWidth  float64 `json:"strokeWidth"`
	BorderRadius float64 `json:"borderRadius"`
}

// Circle is an ellipse inscribed in the element bounds.
type Circle struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Line is a horizontal rule; Height acts as thickness when StrokeWidth is 0.
type Line struct {
	Fill        string  `json:"fill"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func (Gradient) Kind() Kind { return KindGradient }
func (Image) Kind() Kind    { return KindImage }
func (Text) Kind() Kind     { return KindText }
func (Solid) Kind() Kind    { return KindSolid }
func (Rect) Kind() Kind     { return KindRect }
func (Circle) Kind() Kind   { return KindCircle }
func (Line) Kind() Kind     { return KindLine }

func (Gradient) sealed() {}
func (Image) sealed()    {}
func (Text) sealed()     {}
func (Solid) sealed()    {}
func (Rect) sealed()     {}
func (Circle) sealed()   {}
func (Line) sealed()     {}

// Element is one visual layer on the canvas. Geometry is in absolute canvas
// pixels. Paint order is ZIndex ascending, ties broken by list position.
type Element struct {
	ID       string
	Name     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	ZIndex   int
	Opacity  float64 // 0..100, clamped on Normalize
	Rotation float64 // degrees
	Locked   bool
	Visible  bool
	Props    Props
}

// New returns an element of the given kind with variant defaults applied.
// Geometry and naming are the caller's concern (the editor assigns both).
func New(kind Kind) (Element, error) {
	e := Element{
		Opacity: 100,
		Visible: true,
	}
	switch kind {
	case KindGradient:
		e.Props = Gradient{Start: "rgba(0,0,0,0.85)", End: "rgba(0,0,0,0)", Direction: "to top"}
	case KindImage:
		e.Props = Image{ObjectFit: "contain"}
	case KindText:
		e.Props = Text{
			Text:       "Text",
			FontFamily: "sans-serif",
			FontWeight: "700",
			FontSize:   48,
			Color:      "#ffffff",
			LineHeight: 1.2,
			TextAlign:  "left",
		}
	case KindSolid:
		e.Props = Solid{Color: "#000000"}
	case KindRect:
		e.Props = Rect{Fill: "#ffffff"}
	case KindCircle:
		e.Props = Circle{Fill: "#ffffff"}
	case KindLine:
		e.Props = Line{Fill: "#ffffff", StrokeWidth: 2}
	default:
		return Element{}, fmt.Errorf("%w: unknown kind %q", ErrInvalid, kind)
	}
	return e, nil
}

// Normalize clamps Opacity into [0,100] and fills variant defaults that
// survive a partial write (missing objectFit, zero line height). It is
// applied on every commit so no snapshot ever holds an out-of-range value.
func (e Element) Normalize() Element {
	if e.Opacity < 0 {
		e.Opacity = 0
	}
	if e.Opacity > 100 {
		e.Opacity = 100
	}
	switch p := e.Props.(type) {
	case Image:
		if p.ObjectFit == "" {
			p.ObjectFit = "contain"
			e.Props = p
		}
	case Text:
		if p.LineHeight <= 0 {
			p.LineHeight = 1.2
			e.Props = p
		}
	}
	return e
}

// Validate checks the per-variant required fields.
func (e Element) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: element without id", ErrInvalid)
	}
	if e.Width < 0 || e.Height < 0 {
		return fmt.Errorf("%w: element %s has negative size", ErrInvalid, e.ID)
	}
	switch p := e.Props.(type) {
	case Gradient:
		if p.Start == "" || p.End == "" {
			return fmt.Errorf("%w: gradient %s needs start and end colors", ErrInvalid, e.ID)
		}
	case Image:
		switch p.ObjectFit {
		case "contain", "cover", "fill":
		default:
			return fmt.Errorf("%w: image %s objectFit %q", ErrInvalid, e.ID, p.ObjectFit)
		}
	case Text:
		if p.FontSize <= 0 {
			return fmt.Errorf("%w: text %s fontSize must be positive", ErrInvalid, e.ID)
		}
	case Solid:
		if p.Color == "" {
			return fmt.Errorf("%w: solid %s needs a color", ErrInvalid, e.ID)
		}
	case Rect, Circle, Line:
	case nil:
		return fmt.Errorf("%w: element %s has no props", ErrInvalid, e.ID)
	default:
		return fmt.Errorf("%w: element %s has unknown props %T", ErrInvalid, e.ID, p)
	}
	return nil
}

// NormalizeZ sorts elements into paint order (ZIndex ascending, stable so
// ties keep insertion order) and reassigns ZIndex as the dense permutation
// 1..N. The slice is modified in place.
func NormalizeZ(elems []Element) {
	sort.SliceStable(elems, func(i, j int) bool { return elems[i].ZIndex < elems[j].ZIndex })
	for i := range elems {
		elems[i].ZIndex = i + 1
	}
}

// CloneAll deep-copies an element slice. Props variants are value types, so
// copying the Element copies the payload.
func CloneAll(elems []Element) []Element {
	out := make([]Element, len(elems))
	copy(out, elems)
	return out
}
