package stack

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	lcimage "layercanvas/internal/image"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name string, w, h int) *lcimage.Record {
	return lcimage.NewRecord(image.NewRGBA(image.Rect(0, 0, w, h)), name)
}

func names(s *Stack) []string {
	var out []string
	for _, r := range s.Records() {
		out = append(out, r.Path)
	}
	return out
}

func build(n ...string) *Stack {
	s := New()
	for _, name := range n {
		s.Add(record(name, 10, 10))
	}
	return s
}

func TestAddMakesCurrent(t *testing.T) {
	s := build("A")
	assert.Equal(t, 0, s.Current())

	idx := s.Add(record("B", 1, 1))
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"A", "B"}, names(s))
	assert.Equal(t, 1, s.Current())
	assert.Equal(t, None, s.Selected())
}

func TestBringToFrontFollowsSelection(t *testing.T) {
	s := build("A", "B")
	require.NoError(t, s.Select(0))

	require.NoError(t, s.BringToFront(0))
	assert.Equal(t, []string{"B", "A"}, names(s))
	assert.Equal(t, 1, s.Selected())
	assert.Equal(t, 0, s.Current(), "B shifted down one slot")
}

func TestSendToBackShiftsOthers(t *testing.T) {
	s := build("A", "B", "C", "D")
	require.NoError(t, s.Select(0))
	require.NoError(t, s.SetCurrent(3))

	require.NoError(t, s.SendToBack(2))
	assert.Equal(t, []string{"C", "A", "B", "D"}, names(s))
	assert.Equal(t, 1, s.Selected())
	assert.Equal(t, 3, s.Current())
}

func TestRemoveAtAdjustsPointers(t *testing.T) {
	s := build("A", "B", "C")
	require.NoError(t, s.Select(1))

	require.NoError(t, s.RemoveAt(0))
	assert.Equal(t, []string{"B", "C"}, names(s))
	assert.Equal(t, 0, s.Selected())
	assert.Equal(t, 1, s.Current())

	require.NoError(t, s.RemoveAt(0))
	assert.Equal(t, None, s.Selected())
	assert.Equal(t, 0, s.Current())
}

func TestInvalidIndex(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.RemoveAt(0), ErrInvalidIndex)
	assert.ErrorIs(t, s.BringToFront(0), ErrInvalidIndex)
	assert.ErrorIs(t, s.SendToBack(-1), ErrInvalidIndex)
	assert.ErrorIs(t, s.Select(3), ErrInvalidIndex)
	assert.NoError(t, s.Select(None))

	s = build("A")
	assert.ErrorIs(t, s.RemoveAt(1), ErrInvalidIndex)
	assert.Equal(t, []string{"A"}, names(s))
}

func TestFrontThenBackKeepsRelativeOrder(t *testing.T) {
	s := build("A", "B", "C", "D", "E")
	require.NoError(t, s.BringToFront(1))
	require.NoError(t, s.SendToBack(s.Len()-1))
	assert.Equal(t, []string{"B", "A", "C", "D", "E"}, names(s))
}

func TestTarget(t *testing.T) {
	s := New()
	assert.Equal(t, None, s.Target())

	s = build("A", "B")
	assert.Equal(t, 1, s.Target())
	require.NoError(t, s.Select(0))
	assert.Equal(t, 0, s.Target())
}

func TestHitTestPicksTopmost(t *testing.T) {
	s := New()
	s.Add(record("back", 100, 100))
	front := record("front", 20, 20)
	front.Position = image.Pt(10, 10)
	s.Add(front)

	assert.Equal(t, 1, s.HitTest(image.Pt(15, 15)))
	assert.Equal(t, 1, s.HitTest(image.Pt(30, 30)), "edges are inclusive")
	assert.Equal(t, 0, s.HitTest(image.Pt(50, 50)))
	assert.Equal(t, None, s.HitTest(image.Pt(200, 5)))
}

func TestCloneIsDeep(t *testing.T) {
	s := build("A", "B")
	require.NoError(t, s.Select(1))
	c := s.Clone()
	require.True(t, s.Equal(c))

	s.At(0).Position = image.Pt(5, 5)
	s.At(1).SetPixels(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	require.NoError(t, s.RemoveAt(0))

	assert.False(t, s.Equal(c))
	assert.Equal(t, []string{"A", "B"}, names(c))
	assert.Equal(t, image.Point{}, c.At(0).Position)
	assert.Equal(t, 10, c.At(1).Width())
	assert.Equal(t, 1, c.Selected())
}

func TestComposite(t *testing.T) {
	s := New()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	s.Add(lcimage.NewRecord(img, ""))

	out := s.Composite(3, 3, color.Black)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(2, 2))
}

func TestClearResetsPointers(t *testing.T) {
	s := build("A", "B")
	require.NoError(t, s.Select(0))
	s.Clear()
	assert.True(t, s.Empty())
	assert.Equal(t, NoSelection, s.Selection())
}

func TestPointersNeverStale(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := New()
	for step := 0; step < 2000; step++ {
		n := s.Len()
		idx := rng.Intn(n+2) - 1
		switch rng.Intn(5) {
		case 0:
			s.Add(record("r", 1, 1))
		case 1:
			_ = s.RemoveAt(idx)
		case 2:
			_ = s.BringToFront(idx)
		case 3:
			_ = s.SendToBack(idx)
		case 4:
			_ = s.Select(idx)
		}
		require.True(t, s.Consistent(), "step %d: %+v with %d records", step, s.Selection(), s.Len())
	}
}

func TestPointerFollowsRecordIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := build("A", "B", "C", "D", "E", "F")
	require.NoError(t, s.Select(2))
	selected := s.At(2)

	for step := 0; step < 200; step++ {
		i := rng.Intn(s.Len())
		if rng.Intn(2) == 0 {
			require.NoError(t, s.BringToFront(i))
		} else {
			require.NoError(t, s.SendToBack(i))
		}
		require.Same(t, selected, s.At(s.Selected()), "step %d", step)
	}
}
