// Package history implements bounded, snapshot-based undo/redo over an
// element collection.
//
// Each commit stores an immutable JSON snapshot of the full element list.
// The log is linear: committing while undone truncates the redo tail. When
// the log exceeds its capacity the oldest snapshot is evicted, ring-buffer
// style, so memory is bounded regardless of session length.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/atelierlab/maquette/element"
)

// DefaultCapacity bounds the number of retained snapshots.
const DefaultCapacity = 50

// History is a linear undo/redo log. Not safe for concurrent use; the
// editor session is single-mutator by design.
type History struct {
	snapshots [][]byte
	index     int // position of the current state; valid when len > 0
	capacity  int
}

// New returns an empty history with the given capacity (DefaultCapacity
// if cap <= 0).
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity, index: -1}
}

// Len reports the number of retained snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Index reports the position of the current snapshot, -1 when empty.
func (h *History) Index() int { return h.index }

// Commit pushes a snapshot of the collection, discarding any redo tail.
// If capacity is exceeded the oldest snapshot is dropped.
func (h *History) Commit(elems []element.Element) error {
	data, err := json.Marshal(elems)
	if err != nil {
		return fmt.Errorf("history: snapshot: %w", err)
	}
	h.snapshots = append(h.snapshots[:h.index+1], data)
	h.index++
	if len(h.snapshots) > h.capacity {
		drop := len(h.snapshots) - h.capacity
		h.snapshots = append([][]byte(nil), h.snapshots[drop:]...)
		h.index -= drop
	}
	return nil
}

// CanUndo reports whether a prior snapshot exists.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether a later snapshot exists.
func (h *History) CanRedo() bool { return h.index >= 0 && h.index < len(h.snapshots)-1 }

// Undo steps back one snapshot and returns the restored collection.
// Returns ok=false without side effects when already at the oldest state.
func (h *History) Undo() ([]element.Element, bool, error) {
	if !h.CanUndo() {
		return nil, false, nil
	}
	h.index--
	elems, err := h.decode(h.index)
	return elems, err == nil, err
}

// Redo steps forward one snapshot and returns the restored collection.
// Returns ok=false without side effects when already at the newest state.
func (h *History) Redo() ([]element.Element, bool, error) {
	if !h.CanRedo() {
		return nil, false, nil
	}
	h.index++
	elems, err := h.decode(h.index)
	return elems, err == nil, err
}

// Reset clears the log. Invoked on template or mode switch, where element
// shapes across snapshots would no longer be compatible.
func (h *History) Reset() {
	h.snapshots = nil
	h.index = -1
}

func (h *History) decode(i int) ([]element.Element, error) {
	var elems []element.Element
	if err := json.Unmarshal(h.snapshots[i], &elems); err != nil {
		return nil, fmt.Errorf("history: restore: %w", err)
	}
	return elems, nil
}
