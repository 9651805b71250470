package editor

import (
	"fmt"
	"math"

	"github.com/atelierlab/maquette/element"
)

// Alignment names the six canvas-relative alignment operations.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenterH Alignment = "center-h"
	AlignRight   Alignment = "right"
	AlignTop     Alignment = "top"
	AlignCenterV Alignment = "center-v"
	AlignBottom  Alignment = "bottom"
)

// BeginDrag starts a move gesture on an element. Locked elements silently
// refuse the gesture (selection is untouched). axisLock constrains the drag
// to whichever axis travels further from the start position.
func (s *Session) BeginDrag(id string, axisLock bool) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	el := s.tpl.Elements[i]
	if el.Locked {
		return nil
	}
	s.drag = &dragState{
		id:       id,
		origX:    el.X,
		origY:    el.Y,
		axisLock: axisLock,
	}
	return nil
}

// DragTo moves the dragged element to the candidate position, applying axis
// lock and snapping. The live model is updated for preview; nothing is
// committed until EndDrag.
func (s *Session) DragTo(x, y float64) {
	if s.drag == nil {
		return
	}
	i, ok := s.find(s.drag.id)
	if !ok {
		s.drag = nil
		return
	}
	el := s.tpl.Elements[i]

	if s.drag.axisLock {
		// Freeze the axis with the smaller travel since drag start, so
		// motion follows the dominant axis.
		if math.Abs(x-s.drag.origX) >= math.Abs(y-s.drag.origY) {
			y = s.drag.origY
		} else {
			x = s.drag.origX
		}
	}
	if s.snap {
		x, y = s.snapPosition(el, x, y)
	}
	if x != el.X || y != el.Y {
		s.drag.moved = true
	}
	el.X, el.Y = x, y
	s.tpl.Elements[i] = el
}

// EndDrag completes the move gesture with a single history commit. A drag
// that never moved commits nothing.
func (s *Session) EndDrag() error {
	d := s.drag
	s.drag = nil
	if d == nil || !d.moved {
		return nil
	}
	return s.commit()
}

// snapPosition applies grid and canvas-center snapping to a candidate
// position. Center snap wins over grid rounding on the axis it captures:
// an element whose origin or midpoint comes within tolerance of the canvas
// center line lands exactly centered on that axis.
func (s *Session) snapPosition(el element.Element, x, y float64) (float64, float64) {
	cw := float64(s.tpl.CanvasWidth)
	ch := float64(s.tpl.CanvasHeight)
	step := s.cfg.GridStep
	tol := s.cfg.SnapTolerance

	sx := math.Round(x/step) * step
	sy := math.Round(y/step) * step

	if math.Abs(x-cw/2) <= tol || math.Abs(x+el.Width/2-cw/2) <= tol {
		sx = (cw - el.Width) / 2
	}
	if math.Abs(y-ch/2) <= tol || math.Abs(y+el.Height/2-ch/2) <= tol {
		sy = (ch - el.Height) / 2
	}
	return sx, sy
}

// Resize sets the element's size and repositions it to the anchor reported
// by the resize handle, as one committed gesture. Locked elements silently
// refuse.
func (s *Session) Resize(id string, x, y, width, height float64) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	el := s.tpl.Elements[i]
	if el.Locked {
		return nil
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	el.X, el.Y, el.Width, el.Height = x, y, width, height
	s.tpl.Elements[i] = el
	return s.commit()
}

// Align positions one element against the canvas edges or center. Locked
// elements silently refuse, like any other positional gesture.
func (s *Session) Align(id string, a Alignment) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	el := s.tpl.Elements[i]
	if el.Locked {
		return nil
	}
	cw := float64(s.tpl.CanvasWidth)
	ch := float64(s.tpl.CanvasHeight)
	switch a {
	case AlignLeft:
		el.X = 0
	case AlignRight:
		el.X = cw - el.Width
	case AlignCenterH:
		el.X = (cw - el.Width) / 2
	case AlignTop:
		el.Y = 0
	case AlignBottom:
		el.Y = ch - el.Height
	case AlignCenterV:
		el.Y = (ch - el.Height) / 2
	default:
		return fmt.Errorf("editor: unknown alignment %q", a)
	}
	s.tpl.Elements[i] = el
	return s.commit()
}

// Nudge moves every selected unlocked element by one arrow-key step:
// 1px, or 10px when the modifier is held. One commit covers the whole
// selection; a nudge that moves nothing commits nothing.
func (s *Session) Nudge(dx, dy float64, large bool) error {
	step := 1.0
	if large {
		step = 10
	}
	moved := false
	for id := range s.selected {
		i, ok := s.find(id)
		if !ok {
			continue
		}
		el := s.tpl.Elements[i]
		if el.Locked {
			continue
		}
		el.X += dx * step
		el.Y += dy * step
		s.tpl.Elements[i] = el
		moved = true
	}
	if !moved {
		return nil
	}
	return s.commit()
}
