// Package editor implements the interactive editing engine for maquette
// templates: selection, pointer-driven move/resize with snapping and axis
// lock, alignment, z-ordering, clipboard, and undo/redo.
//
// All state lives in a Session aggregate owned by one caller; there are no
// package-level variables. The session is single-mutator: user gestures are
// expressed as Command values and dispatched synchronously, so history
// commits are ordered with the events that caused them.
//
// Every completed gesture (drag stop, resize, nudge, align, structural
// change) is exactly one history commit. Intermediate drag frames update
// the live model for preview but are never committed.
package editor

import (
	"fmt"

	"github.com/atelierlab/maquette/element"
	"github.com/atelierlab/maquette/history"
	"github.com/atelierlab/maquette/idgen"
)

// Config configures a Session.
type Config struct {
	// GridStep is the snap grid pitch in canvas pixels. Default: 10.
	GridStep float64
	// SnapTolerance is the center-snap distance in canvas pixels. Default: 10.
	SnapTolerance float64
	// HistoryCapacity bounds the undo log. Default: history.DefaultCapacity.
	HistoryCapacity int
	// IDs generates element ids. Default: idgen.Prefixed("el_", idgen.NanoID(10)).
	IDs idgen.Generator
}

func (c *Config) defaults() {
	if c.GridStep <= 0 {
		c.GridStep = 10
	}
	if c.SnapTolerance <= 0 {
		c.SnapTolerance = 10
	}
	if c.IDs == nil {
		c.IDs = idgen.Prefixed("el_", idgen.NanoID(10))
	}
}

// Session is the editing state for one open template.
type Session struct {
	cfg  Config
	tpl  *element.Template
	hist *history.History

	selected    map[string]struct{}
	editingText string // element id in inline text edit, "" when none

	// View-only state, never part of the template.
	panX, panY float64
	scale      float64

	snap      bool
	drag      *dragState
	clipboard *element.Element
	counters  map[element.Kind]int
}

type dragState struct {
	id       string
	origX    float64
	origY    float64
	axisLock bool
	moved    bool
}

// NewSession opens an editing session over the template. The initial element
// state is committed so the first undo returns to it.
func NewSession(tpl *element.Template, cfg Config) (*Session, error) {
	cfg.defaults()
	s := &Session{
		cfg:      cfg,
		tpl:      tpl,
		hist:     history.New(cfg.HistoryCapacity),
		selected: make(map[string]struct{}),
		scale:    1,
		snap:     true,
		counters: make(map[element.Kind]int),
	}
	normalize(tpl.Elements)
	if err := s.hist.Commit(tpl.Elements); err != nil {
		return nil, err
	}
	return s, nil
}

// Template exposes the live template. Callers must treat it as read-only;
// mutations go through commands.
func (s *Session) Template() *element.Template { return s.tpl }

// History exposes the undo log, mainly for inspection in tests and UI.
func (s *Session) History() *history.History { return s.hist }

// Selected returns the current selection as a set copy.
func (s *Session) Selected() map[string]struct{} {
	out := make(map[string]struct{}, len(s.selected))
	for id := range s.selected {
		out[id] = struct{}{}
	}
	return out
}

// IsSelected reports whether the id is in the selection.
func (s *Session) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// EditingText returns the id of the element in inline text edit, "" if none.
func (s *Session) EditingText() string { return s.editingText }

// SnapEnabled reports whether grid/center snapping is active.
func (s *Session) SnapEnabled() bool { return s.snap }

// Scale returns the view zoom factor.
func (s *Session) Scale() float64 { return s.scale }

// Pan returns the view pan offset.
func (s *Session) Pan() (x, y float64) { return s.panX, s.panY }

// Select replaces the selection with id, or toggles id in and out when
// additive (modifier-click multi-select). Selecting also closes any open
// inline text edit on another element.
func (s *Session) Select(id string, additive bool) {
	if _, ok := s.find(id); !ok {
		return
	}
	if additive {
		if _, ok := s.selected[id]; ok {
			delete(s.selected, id)
		} else {
			s.selected[id] = struct{}{}
		}
	} else {
		s.selected = map[string]struct{}{id: {}}
	}
	if s.editingText != "" && s.editingText != id {
		s.editingText = ""
	}
}

// ClearSelection empties the selection and closes inline text editing
// (empty-canvas click).
func (s *Session) ClearSelection() {
	s.selected = make(map[string]struct{})
	s.editingText = ""
}

// StartTextEdit opens inline text editing on a text element. At most one
// element is in edit mode at a time.
func (s *Session) StartTextEdit(id string) error {
	i, ok := s.find(id)
	if !ok {
		return fmt.Errorf("editor: no element %s", id)
	}
	if _, isText := s.tpl.Elements[i].Props.(element.Text); !isText {
		return fmt.Errorf("editor: element %s is not text", id)
	}
	s.editingText = id
	s.selected = map[string]struct{}{id: {}}
	return nil
}

// StopTextEdit closes inline text editing.
func (s *Session) StopTextEdit() { s.editingText = "" }

// SetSnap toggles grid/center snapping.
func (s *Session) SetSnap(enabled bool) { s.snap = enabled }

// SetView updates pan and zoom. View state is not part of the template and
// never touches history.
func (s *Session) SetView(panX, panY, scale float64) {
	s.panX, s.panY = panX, panY
	if scale > 0 {
		s.scale = scale
	}
}

// UpdateElement replaces one element record wholesale (property-panel edit).
// Opacity is clamped and z-indexes re-densified on commit, so a manual
// z-index edit lands in its requested slot with ties broken by the prior
// list order.
func (s *Session) UpdateElement(el element.Element) error {
	i, ok := s.find(el.ID)
	if !ok {
		return fmt.Errorf("editor: no element %s", el.ID)
	}
	if err := el.Validate(); err != nil {
		return err
	}
	s.tpl.Elements[i] = el
	return s.commit()
}

// Undo restores the previous snapshot. No-op at the oldest state.
func (s *Session) Undo() error {
	elems, ok, err := s.hist.Undo()
	if err != nil || !ok {
		return err
	}
	s.tpl.Elements = elems
	s.pruneSelection()
	return nil
}

// Redo restores the next snapshot. No-op at the newest state.
func (s *Session) Redo() error {
	elems, ok, err := s.hist.Redo()
	if err != nil || !ok {
		return err
	}
	s.tpl.Elements = elems
	s.pruneSelection()
	return nil
}

// ResetHistory clears the undo log (template or mode switch).
func (s *Session) ResetHistory() error {
	s.hist.Reset()
	return s.hist.Commit(s.tpl.Elements)
}

// find returns the index of the element with the given id.
func (s *Session) find(id string) (int, bool) {
	for i := range s.tpl.Elements {
		if s.tpl.Elements[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// commit normalizes invariants (opacity clamp, dense z permutation in paint
// order) and pushes one history snapshot.
func (s *Session) commit() error {
	normalize(s.tpl.Elements)
	return s.hist.Commit(s.tpl.Elements)
}

func normalize(elems []element.Element) {
	for i := range elems {
		elems[i] = elems[i].Normalize()
	}
	element.NormalizeZ(elems)
}

// pruneSelection drops selected ids that no longer exist after undo/redo.
func (s *Session) pruneSelection() {
	for id := range s.selected {
		if _, ok := s.find(id); !ok {
			delete(s.selected, id)
		}
	}
	if s.editingText != "" {
		if _, ok := s.find(s.editingText); !ok {
			s.editingText = ""
		}
	}
}
