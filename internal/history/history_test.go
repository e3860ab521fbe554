package history

import (
	"image"
	"testing"

	lcimage "layercanvas/internal/image"
	"layercanvas/internal/stack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(s *stack.Stack, name string) {
	s.Add(lcimage.NewRecord(image.NewRGBA(image.Rect(0, 0, 4, 4)), name))
}

func TestEmptyHistoryIsNoop(t *testing.T) {
	live := stack.New()
	m := New(live, 0)

	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())

	restored, ok := m.Undo(live)
	assert.False(t, ok)
	assert.Nil(t, restored)
	_, ok = m.Redo(live)
	assert.False(t, ok)
	assert.False(t, m.CanRedo(), "a failed undo must not create redo state")
}

func TestUndoRestoresPreMutationState(t *testing.T) {
	live := stack.New()
	m := New(live, 0)

	m.Record(live)
	add(live, "A")
	m.Record(live)
	add(live, "B")
	require.NoError(t, live.Select(1))

	before := live.Clone()
	m.Record(live)
	require.NoError(t, live.RemoveAt(0))
	live.At(0).Position = image.Pt(9, 9)

	restored, ok := m.Undo(live)
	require.True(t, ok)
	assert.True(t, before.Equal(restored))
	assert.Equal(t, 1, restored.Selected())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	live := stack.New()
	m := New(live, 0)
	m.Record(live)
	add(live, "A")

	afterAdd := live.Clone()
	live, ok := m.Undo(live)
	require.True(t, ok)
	assert.Equal(t, 0, live.Len())
	assert.False(t, m.CanUndo(), "floor snapshot is never popped")
	assert.True(t, m.CanRedo())

	undone := live.Clone()
	live, ok = m.Redo(live)
	require.True(t, ok)
	assert.True(t, afterAdd.Equal(live))

	live, ok = m.Undo(live)
	require.True(t, ok)
	assert.True(t, undone.Equal(live))
}

func TestRecordClearsRedo(t *testing.T) {
	live := stack.New()
	m := New(live, 0)
	m.Record(live)
	add(live, "A")

	live, _ = m.Undo(live)
	require.True(t, m.CanRedo())

	m.Record(live)
	add(live, "B")
	assert.False(t, m.CanRedo())
}

func TestSnapshotsAreValues(t *testing.T) {
	live := stack.New()
	add(live, "A")
	m := New(stack.New(), 0)
	m.Record(live)

	live.At(0).SetPixels(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	live.At(0).Position = image.Pt(3, 3)

	restored, ok := m.Undo(live)
	require.True(t, ok)
	assert.Equal(t, 4, restored.At(0).Width())
	assert.Equal(t, image.Point{}, restored.At(0).Position)
}

func TestLimitTrimsOldest(t *testing.T) {
	live := stack.New()
	m := New(live, 3)
	for i := 0; i < 10; i++ {
		m.Record(live)
		add(live, "r")
	}
	assert.Equal(t, 3, m.UndoDepth())

	for m.CanUndo() {
		live, _ = m.Undo(live)
	}
	assert.Equal(t, 7, live.Len())
	assert.Equal(t, 3, m.RedoDepth())
}

func TestRedoRespectsLimit(t *testing.T) {
	live := stack.New()
	m := New(live, 3)
	for i := 0; i < 10; i++ {
		m.Record(live)
		add(live, "r")
	}
	live, _ = m.Undo(live)
	live, _ = m.Undo(live)
	for m.CanRedo() {
		live, _ = m.Redo(live)
		assert.LessOrEqual(t, m.UndoDepth(), m.Limit())
	}
	assert.Equal(t, 3, m.UndoDepth())
	assert.Equal(t, 10, live.Len())
}

func TestReset(t *testing.T) {
	live := stack.New()
	m := New(live, 0)
	m.Record(live)
	add(live, "A")
	m.Reset(live)
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}
