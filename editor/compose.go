package editor

import (
	"fmt"

	"github.com/atelierlab/maquette/element"
)

// Direction moves an element one slot through the paint order.
type Direction string

const (
	DirUp   Direction = "up"   // towards the viewer (later paint)
	DirDown Direction = "down" // towards the background (earlier paint)
)

const duplicateOffset = 20

// displayNames maps variants to the label used for default element names.
var displayNames = map[element.Kind]string{
	element.KindGradient: "Gradient",
	element.KindImage:    "Image",
	element.KindText:     "Text",
	element.KindSolid:    "Color",
	element.KindRect:     "Rectangle",
	element.KindCircle:   "Circle",
	element.KindLine:     "Line",
}

// Add creates an element of the given kind with a fresh id, a counted
// default name ("Image 3"), default geometry and top z-index, applies the
// optional override, commits, and selects it.
func (s *Session) Add(kind element.Kind, override func(*element.Element)) (element.Element, error) {
	el, err := element.New(kind)
	if err != nil {
		return element.Element{}, err
	}
	s.counters[kind]++
	el.ID = s.cfg.IDs()
	el.Name = fmt.Sprintf("%s %d", displayNames[kind], s.counters[kind])
	el.X, el.Y = 40, 40
	el.Width, el.Height = 200, 200
	if kind == element.KindText {
		el.Width, el.Height = 400, 100
	}
	if kind == element.KindLine {
		el.Height = 2
	}
	el.ZIndex = len(s.tpl.Elements) + 1
	if override != nil {
		// Overrides may adjust geometry and props but never identity or
		// stacking, which the session owns.
		id, z := el.ID, el.ZIndex
		override(&el)
		el.ID, el.ZIndex = id, z
	}
	if err := el.Validate(); err != nil {
		return element.Element{}, err
	}
	s.tpl.Elements = append(s.tpl.Elements, el)
	if err := s.commit(); err != nil {
		return element.Element{}, err
	}
	s.selected = map[string]struct{}{el.ID: {}}
	return s.tpl.Elements[len(s.tpl.Elements)-1], nil
}

// Duplicate deep-copies an element, offsets it by (+20,+20), appends
// " (copy)" to the name, gives it a fresh id and the top z-index,
// commits, and selects the copy.
func (s *Session) Duplicate(id string) (element.Element, error) {
	i, ok := s.find(id)
	if !ok {
		return element.Element{}, fmt.Errorf("editor: no element %s", id)
	}
	cp := s.tpl.Elements[i]
	cp.ID = s.cfg.IDs()
	cp.Name += " (copy)"
	cp.X += duplicateOffset
	cp.Y += duplicateOffset
	cp.ZIndex = len(s.tpl.Elements) + 1
	s.tpl.Elements = append(s.tpl.Elements, cp)
	if err := s.commit(); err != nil {
		return element.Element{}, err
	}
	s.selected = map[string]struct{}{cp.ID: {}}
	return s.tpl.Elements[len(s.tpl.Elements)-1], nil
}

// Delete removes an element, commits, and drops it from the selection.
func (s *Session) Delete(id string) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	s.tpl.Elements = append(s.tpl.Elements[:i], s.tpl.Elements[i+1:]...)
	delete(s.selected, id)
	if s.editingText == id {
		s.editingText = ""
	}
	return s.commit()
}

// Reorder swaps an element with its immediate neighbor in paint order.
// Out-of-range moves are no-ops. Z-indexes are reassigned densely from the
// new order on commit.
func (s *Session) Reorder(id string, dir Direction) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	var j int
	switch dir {
	case DirUp:
		j = i + 1
	case DirDown:
		j = i - 1
	default:
		return fmt.Errorf("editor: unknown direction %q", dir)
	}
	if j < 0 || j >= len(s.tpl.Elements) {
		return nil
	}
	s.tpl.Elements[i], s.tpl.Elements[j] = s.tpl.Elements[j], s.tpl.Elements[i]
	// Swap z too so the dense reassignment keeps the swapped order.
	s.tpl.Elements[i].ZIndex, s.tpl.Elements[j].ZIndex = s.tpl.Elements[j].ZIndex, s.tpl.Elements[i].ZIndex
	return s.commit()
}

// ToggleLock flips the lock flag. The flag itself stays editable on a
// locked element; only geometry gestures are suppressed.
func (s *Session) ToggleLock(id string) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	s.tpl.Elements[i].Locked = !s.tpl.Elements[i].Locked
	return s.commit()
}

// ToggleVisible flips the visibility flag (suppresses paint and export).
func (s *Session) ToggleVisible(id string) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	s.tpl.Elements[i].Visible = !s.tpl.Elements[i].Visible
	return s.commit()
}

// Copy captures one element's full record on the session clipboard.
func (s *Session) Copy(id string) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	cp := s.tpl.Elements[i]
	s.clipboard = &cp
	return nil
}

// Paste inserts a clone of the clipboard element offset by (+20,+20) with a
// fresh id and top z-index, commits, and selects it. No-op with an empty
// clipboard.
func (s *Session) Paste() (element.Element, error) {
	if s.clipboard == nil {
		return element.Element{}, nil
	}
	cp := *s.clipboard
	cp.ID = s.cfg.IDs()
	cp.X += duplicateOffset
	cp.Y += duplicateOffset
	cp.ZIndex = len(s.tpl.Elements) + 1
	s.tpl.Elements = append(s.tpl.Elements, cp)
	if err := s.commit(); err != nil {
		return element.Element{}, err
	}
	s.selected = map[string]struct{}{cp.ID: {}}
	return s.tpl.Elements[len(s.tpl.Elements)-1], nil
}
