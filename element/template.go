package element

import "fmt"

// Mode selects between image-backed and text-only templates.
type Mode string

const (
	ModeVisual Mode = "visual"
	ModeText   Mode = "text"
)

// Canonical canvas resolution for social exports.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1350
)

// Template is the serializable description of one canvas.
type Template struct {
	CanvasWidth        int       `json:"canvasWidth"`
	CanvasHeight       int       `json:"canvasHeight"`
	Mode               Mode      `json:"mode"`
	BackgroundColor    string    `json:"backgroundColor,omitempty"`
	BackgroundResource string    `json:"backgroundResource,omitempty"` // URL or data: URI
	Elements           []Element `json:"elements"`
}

// Validate checks the template-level invariants: positive canvas, a
// background resource or color in visual mode, unique element ids, and
// per-element validity.
func (t *Template) Validate() error {
	if t.CanvasWidth <= 0 || t.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalid, t.CanvasWidth, t.CanvasHeight)
	}
	switch t.Mode {
	case ModeVisual:
		if t.BackgroundResource == "" && t.BackgroundColor == "" {
			return fmt.Errorf("%w: visual mode requires a background resource or color", ErrInvalid)
		}
	case ModeText:
		if t.BackgroundColor == "" {
			return fmt.Errorf("%w: text mode requires a background color", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalid, t.Mode)
	}
	seen := make(map[string]bool, len(t.Elements))
	for _, e := range t.Elements {
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate element id %s", ErrInvalid, e.ID)
		}
		seen[e.ID] = true
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy. The render pipeline works on clones so an
// in-flight export never observes later edits.
func (t *Template) Clone() *Template {
	c := *t
	c.Elements = CloneAll(t.Elements)
	return &c
}
