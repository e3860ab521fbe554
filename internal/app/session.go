// Package app holds the editing session: the image stack, its history, the
// overlays and every operation a front end may invoke.
package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"layercanvas/internal/history"
	lcimage "layercanvas/internal/image"
	"layercanvas/internal/overlay"
	"layercanvas/internal/render"
	"layercanvas/internal/stack"
)

// Default canvas size.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

var (
	// ErrNoTarget is returned when an operation needs a record and none is
	// selected or current.
	ErrNoTarget = errors.New("no image selected")

	// ErrNotDragging is returned by drag calls outside a drag gesture.
	ErrNotDragging = errors.New("no drag in progress")

	// ErrEmptyResult is returned when a transform produced no pixels.
	ErrEmptyResult = errors.New("transform returned an empty image")

	// ErrInvalidArea is returned when a crop rectangle does not overlap the image.
	ErrInvalidArea = errors.New("invalid crop area")

	// ErrInvalidSize is returned for non-positive resize dimensions.
	ErrInvalidSize = errors.New("invalid size")
)

// Session is one editor session. All methods must be called from a single
// goroutine, normally the UI event thread.
type Session struct {
	stack    *stack.Stack
	history  *history.Manager
	renderer *render.Renderer
	drawing  *overlay.Drawing
	text     *overlay.TextLayer
	canvas   image.Point

	tool      Tool
	pivot     Pivot
	textStyle overlay.TextElement
	drag      dragState
	gesture   *gesture
	band      *cropBand

	status    string
	logger    *slog.Logger
	listeners map[EventType][]EventListener

	historyLimit int
	renderOpts   render.Options
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCanvasSize sets the canvas size.
func WithCanvasSize(width, height int) Option {
	return func(s *Session) {
		if width > 0 && height > 0 {
			s.canvas = image.Pt(width, height)
		}
	}
}

// WithHistoryLimit bounds the number of undo steps. Zero or less keeps all.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		s.historyLimit = n
	}
}

// WithRenderOptions sets the background and highlight appearance.
func WithRenderOptions(opts render.Options) Option {
	return func(s *Session) {
		s.renderOpts = opts
	}
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		stack:        stack.New(),
		drawing:      overlay.NewDrawing(),
		text:         overlay.NewTextLayer(),
		textStyle:    overlay.NewTextElement("", image.Point{}),
		canvas:       image.Pt(DefaultWidth, DefaultHeight),
		logger:       slog.New(slog.DiscardHandler),
		listeners:    make(map[EventType][]EventListener),
		historyLimit: history.DefaultLimit,
		renderOpts:   render.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = history.New(s.stack, s.historyLimit)
	s.renderer = render.New(s.canvas.X, s.canvas.Y, s.renderOpts)
	return s
}

// CanvasSize returns the canvas dimensions.
func (s *Session) CanvasSize() image.Point {
	return s.canvas
}

// SetCanvasSize resizes the canvas. Records keep their positions.
func (s *Session) SetCanvasSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.canvas = image.Pt(width, height)
	s.renderer.Resize(width, height)
	s.Emit(EventStackChanged, nil)
}

// Len returns the number of records on the canvas.
func (s *Session) Len() int {
	return s.stack.Len()
}

// Record returns the record at index i, or nil. Callers must treat it as
// read-only and go through Session methods to change it.
func (s *Session) Record(i int) *lcimage.Record {
	return s.stack.At(i)
}

// Records returns the records bottom to top.
func (s *Session) Records() []*lcimage.Record {
	return s.stack.Records()
}

// Selection returns the selected and current pointers.
func (s *Session) Selection() stack.Selection {
	return s.stack.Selection()
}

// Selected returns the selected index or stack.None.
func (s *Session) Selected() int {
	return s.stack.Selected()
}

// Current returns the current index or stack.None.
func (s *Session) Current() int {
	return s.stack.Current()
}

// Drawing returns the freehand drawing overlay.
func (s *Session) Drawing() *overlay.Drawing {
	return s.drawing
}

// Text returns the text overlay.
func (s *Session) Text() *overlay.TextLayer {
	return s.text
}

// Status returns the last status message.
func (s *Session) Status() string {
	return s.status
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	return s.history.CanRedo()
}

// Undo restores the state before the last recorded mutation. It is a no-op
// when nothing can be undone.
func (s *Session) Undo() bool {
	s.finishGestures()
	restored, ok := s.history.Undo(s.stack)
	if !ok {
		return false
	}
	s.stack = restored
	s.setStatus("Undo")
	s.emitChanged()
	return true
}

// Redo re-applies the last undone mutation. It is a no-op when nothing has
// been undone since the last edit.
func (s *Session) Redo() bool {
	s.finishGestures()
	restored, ok := s.history.Redo(s.stack)
	if !ok {
		return false
	}
	s.stack = restored
	s.setStatus("Redo")
	s.emitChanged()
	return true
}

// Render paints the canvas with overlays and the selection highlight.
func (s *Session) Render() (*image.RGBA, error) {
	overlays := []render.Overlay{s.drawing, s.text}
	if s.band != nil {
		overlays = append(overlays, s.band)
	}
	return s.renderer.Render(s.stack, overlays...)
}

// Composite flattens the visible records without overlays or highlight.
func (s *Session) Composite(background color.Color) *image.RGBA {
	return s.stack.Composite(s.canvas.X, s.canvas.Y, background)
}

// snapshot records the live state before a mutation.
func (s *Session) snapshot() {
	s.history.Record(s.stack)
}

// target resolves the record a single-record operation acts on.
func (s *Session) target() (int, *lcimage.Record, error) {
	i := s.stack.Target()
	if i == stack.None {
		return stack.None, nil, ErrNoTarget
	}
	return i, s.stack.At(i), nil
}

func (s *Session) setStatus(msg string) {
	s.status = msg
	s.logger.Info(msg)
	s.Emit(EventStatus, msg)
}

func (s *Session) statusf(format string, args ...any) {
	s.setStatus(fmt.Sprintf(format, args...))
}

// warn reports a recovered failure.
func (s *Session) warn(msg string, err error) {
	s.status = fmt.Sprintf("%s: %v", msg, err)
	s.logger.Warn(msg, "err", err)
	s.Emit(EventStatus, s.status)
}

func (s *Session) emitChanged() {
	s.Emit(EventStackChanged, nil)
	s.Emit(EventSelectionChanged, s.stack.Selection())
	s.Emit(EventHistoryChanged, nil)
}
