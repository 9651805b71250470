package editor

import "github.com/atelierlab/maquette/element"

// Command is one user gesture, reified so the undo boundary is exact and
// the engine can be driven without a UI harness. Commands are immutable
// values; Dispatch applies them synchronously to the session.
type Command interface {
	apply(s *Session) error
}

// Dispatch applies a command to the session.
func (s *Session) Dispatch(cmd Command) error { return cmd.apply(s) }

// SelectElement replaces the selection with ID, or toggles it when Additive.
type SelectElement struct {
	ID       string
	Additive bool
}

// ClearSelection is an empty-canvas click.
type ClearSelection struct{}

// BeginDrag starts a move gesture.
type BeginDrag struct {
	ID       string
	AxisLock bool
}

// Drag is one pointer-move frame with the candidate position.
type Drag struct{ X, Y float64 }

// EndDrag completes the move gesture (one commit).
type EndDrag struct{}

// Resize applies a resize-handle result: new size plus the anchor position.
type Resize struct {
	ID         string
	X, Y, W, H float64
}

// Align positions one element against a canvas edge or center line.
type Align struct {
	ID   string
	Edge Alignment
}

// Nudge is an arrow-key move: DX/DY in {-1,0,1}, Large for the 10px step.
type Nudge struct {
	DX, DY float64
	Large  bool
}

// AddElement creates a new element of the given kind.
type AddElement struct {
	Kind     element.Kind
	Override func(*element.Element)
}

// DuplicateElement clones an element.
type DuplicateElement struct{ ID string }

// DeleteElement removes an element.
type DeleteElement struct{ ID string }

// ReorderElement swaps an element with its paint-order neighbor.
type ReorderElement struct {
	ID  string
	Dir Direction
}

// ToggleLock flips the lock flag.
type ToggleLock struct{ ID string }

// ToggleVisible flips the visibility flag.
type ToggleVisible struct{ ID string }

// CopyElement captures an element on the clipboard.
type CopyElement struct{ ID string }

// PasteClipboard inserts a clone of the clipboard element.
type PasteClipboard struct{}

// Undo steps the session back one snapshot.
type Undo struct{}

// Redo steps the session forward one snapshot.
type Redo struct{}

// SetSnap toggles grid/center snapping.
type SetSnap struct{ Enabled bool }

func (c SelectElement) apply(s *Session) error    { s.Select(c.ID, c.Additive); return nil }
func (ClearSelection) apply(s *Session) error     { s.ClearSelection(); return nil }
func (c BeginDrag) apply(s *Session) error        { return s.BeginDrag(c.ID, c.AxisLock) }
func (c Drag) apply(s *Session) error             { s.DragTo(c.X, c.Y); return nil }
func (EndDrag) apply(s *Session) error            { return s.EndDrag() }
func (c Resize) apply(s *Session) error           { return s.Resize(c.ID, c.X, c.Y, c.W, c.H) }
func (c Align) apply(s *Session) error            { return s.Align(c.ID, c.Edge) }
func (c Nudge) apply(s *Session) error            { return s.Nudge(c.DX, c.DY, c.Large) }
func (c DuplicateElement) apply(s *Session) error { _, err := s.Duplicate(c.ID); return err }
func (c DeleteElement) apply(s *Session) error    { return s.Delete(c.ID) }
func (c ReorderElement) apply(s *Session) error   { return s.Reorder(c.ID, c.Dir) }
func (c ToggleLock) apply(s *Session) error       { return s.ToggleLock(c.ID) }
func (c ToggleVisible) apply(s *Session) error    { return s.ToggleVisible(c.ID) }
func (c CopyElement) apply(s *Session) error      { return s.Copy(c.ID) }
func (PasteClipboard) apply(s *Session) error     { _, err := s.Paste(); return err }
func (Undo) apply(s *Session) error               { return s.Undo() }
func (Redo) apply(s *Session) error               { return s.Redo() }
func (c SetSnap) apply(s *Session) error          { s.SetSnap(c.Enabled); return nil }

func (c AddElement) apply(s *Session) error {
	_, err := s.Add(c.Kind, c.Override)
	return err
}
