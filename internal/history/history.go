// Package history implements snapshot-based undo and redo over the record stack.
package history

import (
	"layercanvas/internal/stack"
)

// DefaultLimit is the number of undo steps kept when no limit is configured.
const DefaultLimit = 50

// Manager keeps two snapshot stacks. Every snapshot is a deep copy, so later
// edits to the live stack never reach stored history.
//
// The undo stack always holds a floor snapshot (the state the session started
// from), which is never popped. Undo is possible only above that floor.
type Manager struct {
	undo  []*stack.Stack
	redo  []*stack.Stack
	limit int
}

// New creates a manager seeded with base as its floor. A limit <= 0 means
// unbounded.
func New(base *stack.Stack, limit int) *Manager {
	m := &Manager{limit: limit}
	m.Reset(base)
	return m
}

// Reset drops all history and seeds a new floor.
func (m *Manager) Reset(base *stack.Stack) {
	if base == nil {
		base = stack.New()
	}
	m.undo = []*stack.Stack{base.Clone()}
	m.redo = nil
}

// Record snapshots live before a mutation and invalidates redo.
func (m *Manager) Record(live *stack.Stack) {
	m.undo = append(m.undo, live.Clone())
	m.redo = nil
	m.trim()
}

// trim keeps at most limit steps above the floor; the oldest surviving
// snapshot becomes the new floor.
func (m *Manager) trim() {
	if m.limit > 0 && len(m.undo) > m.limit+1 {
		drop := len(m.undo) - (m.limit + 1)
		clear(m.undo[:drop])
		m.undo = append(m.undo[:0], m.undo[drop:]...)
	}
}

// CanUndo reports whether a snapshot above the floor exists.
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 1
}

// CanRedo reports whether an undone state is available.
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0
}

// Undo saves live for redo and returns the state to restore. The returned
// stack is owned by the caller. ok is false when there is nothing to undo.
func (m *Manager) Undo(live *stack.Stack) (restored *stack.Stack, ok bool) {
	if !m.CanUndo() {
		return nil, false
	}
	m.redo = append(m.redo, live.Clone())
	top := len(m.undo) - 1
	restored = m.undo[top]
	m.undo[top] = nil
	m.undo = m.undo[:top]
	return restored, true
}

// Redo saves live for undo and returns the state to restore. ok is false when
// nothing has been undone since the last recorded mutation.
func (m *Manager) Redo(live *stack.Stack) (restored *stack.Stack, ok bool) {
	if !m.CanRedo() {
		return nil, false
	}
	m.undo = append(m.undo, live.Clone())
	m.trim()
	top := len(m.redo) - 1
	restored = m.redo[top]
	m.redo[top] = nil
	m.redo = m.redo[:top]
	return restored, true
}

// UndoDepth returns the number of steps that can be undone.
func (m *Manager) UndoDepth() int {
	return len(m.undo) - 1
}

// RedoDepth returns the number of steps that can be redone.
func (m *Manager) RedoDepth() int {
	return len(m.redo)
}

// Limit returns the retention limit, 0 when unbounded.
func (m *Manager) Limit() int {
	return max(m.limit, 0)
}
