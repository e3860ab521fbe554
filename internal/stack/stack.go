// Package stack holds the ordered records on the canvas together with the
// selection pointers that index into them.
package stack

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	lcimage "layercanvas/internal/image"
)

// None marks a pointer that does not reference any record.
const None = -1

// ErrInvalidIndex is returned for an index outside the stack.
var ErrInvalidIndex = errors.New("invalid index")

// Selection tracks the interactively selected record and the most recently
// loaded or touched one. Either may be None.
type Selection struct {
	Selected int
	Current  int
}

// NoSelection is the empty selection.
var NoSelection = Selection{Selected: None, Current: None}

// Stack is an ordered sequence of records. Index 0 is painted first (back),
// the last index last (front). Indices are always dense.
type Stack struct {
	records []*lcimage.Record
	sel     Selection
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{sel: NoSelection}
}

// Len returns the number of records.
func (s *Stack) Len() int {
	return len(s.records)
}

// Empty reports whether the stack holds no records.
func (s *Stack) Empty() bool {
	return len(s.records) == 0
}

// Valid reports whether i indexes a record.
func (s *Stack) Valid(i int) bool {
	return i >= 0 && i < len(s.records)
}

// At returns the record at index i, or nil when i is out of range.
func (s *Stack) At(i int) *lcimage.Record {
	if !s.Valid(i) {
		return nil
	}
	return s.records[i]
}

// Records returns the records back to front. The slice is a copy; the
// records are not.
func (s *Stack) Records() []*lcimage.Record {
	out := make([]*lcimage.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Selection returns both pointers.
func (s *Stack) Selection() Selection {
	return s.sel
}

// Selected returns the selected index or None.
func (s *Stack) Selected() int {
	return s.sel.Selected
}

// Current returns the current index or None.
func (s *Stack) Current() int {
	return s.sel.Current
}

// Select sets the selected pointer. None clears it.
func (s *Stack) Select(i int) error {
	if i != None && !s.Valid(i) {
		return fmt.Errorf("select %d: %w", i, ErrInvalidIndex)
	}
	s.sel.Selected = i
	return nil
}

// SetCurrent sets the current pointer. None clears it.
func (s *Stack) SetCurrent(i int) error {
	if i != None && !s.Valid(i) {
		return fmt.Errorf("set current %d: %w", i, ErrInvalidIndex)
	}
	s.sel.Current = i
	return nil
}

// Target returns the index single-record operations act on: the selected
// record, else the current one, else None.
func (s *Stack) Target() int {
	if s.Valid(s.sel.Selected) {
		return s.sel.Selected
	}
	if s.Valid(s.sel.Current) {
		return s.sel.Current
	}
	return None
}

// Add appends r as the topmost record and makes it current. It returns the
// new index.
func (s *Stack) Add(r *lcimage.Record) int {
	s.records = append(s.records, r)
	s.sel.Current = len(s.records) - 1
	return s.sel.Current
}

// RemoveAt deletes the record at index i.
func (s *Stack) RemoveAt(i int) error {
	if !s.Valid(i) {
		return fmt.Errorf("remove %d: %w", i, ErrInvalidIndex)
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.remap(func(j int) int {
		switch {
		case j == i:
			return None
		case j > i:
			return j - 1
		}
		return j
	})
	return nil
}

// BringToFront moves the record at i to the end of the sequence.
func (s *Stack) BringToFront(i int) error {
	if !s.Valid(i) {
		return fmt.Errorf("bring to front %d: %w", i, ErrInvalidIndex)
	}
	last := len(s.records) - 1
	r := s.records[i]
	copy(s.records[i:], s.records[i+1:])
	s.records[last] = r
	s.remap(func(j int) int {
		switch {
		case j == i:
			return last
		case j > i:
			return j - 1
		}
		return j
	})
	return nil
}

// SendToBack moves the record at i to the start of the sequence.
func (s *Stack) SendToBack(i int) error {
	if !s.Valid(i) {
		return fmt.Errorf("send to back %d: %w", i, ErrInvalidIndex)
	}
	r := s.records[i]
	copy(s.records[1:i+1], s.records[:i])
	s.records[0] = r
	s.remap(func(j int) int {
		switch {
		case j == i:
			return 0
		case j < i:
			return j + 1
		}
		return j
	})
	return nil
}

// Clear removes every record and resets both pointers.
func (s *Stack) Clear() {
	s.records = nil
	s.sel = NoSelection
}

// remap is the only place pointers follow structural changes. Pointers that
// are already None stay None; anything the mapping sends out of range is
// invalidated.
func (s *Stack) remap(fn func(int) int) {
	adjust := func(j int) int {
		if j == None {
			return None
		}
		j = fn(j)
		if !s.Valid(j) {
			return None
		}
		return j
	}
	s.sel.Selected = adjust(s.sel.Selected)
	s.sel.Current = adjust(s.sel.Current)
}

// HitTest returns the index of the topmost record whose box contains p,
// or None.
func (s *Stack) HitTest(p image.Point) int {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Contains(p) {
			return i
		}
	}
	return None
}

// Composite flattens the visible records onto a width x height canvas.
func (s *Stack) Composite(width, height int, background color.Color) *image.RGBA {
	c := lcimage.NewComposite(width, height)
	c.Background = background
	c.Add(s.records...)
	return c.Render()
}

// Clone returns a deep copy: every record and bitmap is duplicated.
func (s *Stack) Clone() *Stack {
	out := &Stack{
		records: make([]*lcimage.Record, len(s.records)),
		sel:     s.sel,
	}
	for i, r := range s.records {
		out.records[i] = r.Clone()
	}
	return out
}

// Equal reports whether two stacks hold equal records in the same order and
// the same selection.
func (s *Stack) Equal(other *Stack) bool {
	if s.sel != other.sel || len(s.records) != len(other.records) {
		return false
	}
	for i := range s.records {
		if !s.records[i].Equal(other.records[i]) {
			return false
		}
	}
	return true
}

// Consistent reports whether both pointers are None or in range.
func (s *Stack) Consistent() bool {
	ok := func(j int) bool { return j == None || s.Valid(j) }
	return ok(s.sel.Selected) && ok(s.sel.Current)
}
