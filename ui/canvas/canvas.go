// Package canvas shows a session's rendered canvas with zoom and forwards
// pointer input to the session.
package canvas

import (
	"image"
	"math"

	"layercanvas/internal/app"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// ImageCanvas displays the session canvas and routes pointer input to it.
type ImageCanvas struct {
	widget.BaseWidget

	guard  *Guard
	size   image.Point // session canvas size
	raster *fynecanvas.Raster
	zoom   float64

	// pointer state
	pressed bool
	last    image.Point

	scroll  *zoomScroll
	content *pointerContent
	imgSize fyne.Size

	fitToWindow bool
	viewSize    fyne.Size

	lastOutput *image.RGBA

	onZoomChange func(zoom float64)
	onRightClick func(p image.Point, at fyne.Position)
}

// zoomScroll is a two-way scroll whose wheel zooms instead of scrolling.
type zoomScroll struct {
	widget.BaseWidget
	inner   *container.Scroll
	onWheel func(*fyne.ScrollEvent)
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	zs.onWheel(ev)
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.inner)
}

// pointerContent wraps the raster to receive mouse events.
type pointerContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

var (
	_ fyne.Draggable    = (*pointerContent)(nil)
	_ fyne.Tappable     = (*pointerContent)(nil)
	_ desktop.Mouseable = (*pointerContent)(nil)
)

func newPointerContent(ic *ImageCanvas, raster *fynecanvas.Raster) *pointerContent {
	pc := &pointerContent{canvas: ic, raster: raster}
	pc.ExtendBaseWidget(pc)
	return pc
}

func (pc *pointerContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(pc.raster)
}

func (pc *pointerContent) MinSize() fyne.Size {
	return pc.raster.MinSize()
}

// MouseDown starts a gesture for the primary button.
func (pc *pointerContent) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	ic := pc.canvas
	ic.pressed = true
	ic.last = ic.toCanvas(ev.Position)
	p := ic.last
	ic.guard.Do(func(s *app.Session) { s.Press(p) })
}

// MouseUp finishes the gesture unless a drag already did.
func (pc *pointerContent) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	pc.canvas.release(pc.canvas.toCanvas(ev.Position))
}

func (pc *pointerContent) Dragged(ev *fyne.DragEvent) {
	ic := pc.canvas
	if !ic.pressed {
		return
	}
	p := ic.toCanvas(ev.Position)
	if p == ic.last {
		return
	}
	ic.last = p
	ic.guard.Do(func(s *app.Session) { s.Drag(p) })
}

func (pc *pointerContent) DragEnd() {
	pc.canvas.release(pc.canvas.last)
}

// Tapped is handled through MouseDown and MouseUp.
func (pc *pointerContent) Tapped(*fyne.PointEvent) {}

// TappedSecondary reports a right click at canvas coordinates.
func (pc *pointerContent) TappedSecondary(ev *fyne.PointEvent) {
	ic := pc.canvas
	if ic.onRightClick == nil {
		return
	}
	size := pc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 || ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	ic.onRightClick(ic.toCanvas(ev.Position), ev.AbsolutePosition)
}

func (pc *pointerContent) Scrolled(ev *fyne.ScrollEvent) {
	pc.canvas.wheel(ev)
}

// NewImageCanvas creates a canvas view of the guarded session. It refreshes
// itself whenever the session reports a change.
func NewImageCanvas(g *Guard) *ImageCanvas {
	ic := &ImageCanvas{guard: g, zoom: 1.0}
	g.Do(func(s *app.Session) {
		ic.size = s.CanvasSize()
		refresh := func(interface{}) { ic.Refresh() }
		s.On(app.EventStackChanged, func(interface{}) {
			// the canvas may have been resized
			ic.size = s.CanvasSize()
			ic.Refresh()
		})
		s.On(app.EventSelectionChanged, refresh)
		s.On(app.EventOverlayChanged, refresh)
	})

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.content = newPointerContent(ic, ic.raster)
	ic.scroll = &zoomScroll{inner: container.NewScroll(ic.content), onWheel: ic.wheel}
	ic.scroll.inner.Direction = container.ScrollBoth
	ic.scroll.ExtendBaseWidget(ic.scroll)
	ic.updateContentSize()

	ic.ExtendBaseWidget(ic)
	return ic
}

func (ic *ImageCanvas) release(p image.Point) {
	if !ic.pressed {
		return
	}
	ic.pressed = false
	ic.guard.Do(func(s *app.Session) { s.Release(p) })
}

// toCanvas converts a position on the zoomed raster to canvas pixels.
func (ic *ImageCanvas) toCanvas(pos fyne.Position) image.Point {
	return image.Pt(
		int(math.Floor(float64(pos.X)/ic.zoom)),
		int(math.Floor(float64(pos.Y)/ic.zoom)),
	)
}

func (ic *ImageCanvas) wheel(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		ic.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		ic.ZoomOut()
	}
}

// SetZoom sets the zoom level, clamped to 10%..1000%.
func (ic *ImageCanvas) SetZoom(zoom float64) {
	ic.zoom = max(minZoom, min(maxZoom, zoom))
	ic.updateContentSize()
	if ic.onZoomChange != nil {
		ic.onZoomChange(ic.zoom)
	}
}

// Zoom returns the current zoom level.
func (ic *ImageCanvas) Zoom() float64 {
	return ic.zoom
}

func (ic *ImageCanvas) ZoomIn() {
	ic.SetZoom(ic.zoom * zoomStep)
}

func (ic *ImageCanvas) ZoomOut() {
	ic.SetZoom(ic.zoom / zoomStep)
}

// FitToWindow zooms so the whole canvas is visible.
func (ic *ImageCanvas) FitToWindow() {
	size := ic.size
	view := ic.scroll.Size()
	if size.X == 0 || size.Y == 0 || view.Width <= 0 || view.Height <= 0 {
		return
	}
	zoom := min(float64(view.Width)/float64(size.X), float64(view.Height)/float64(size.Y))
	ic.SetZoom(zoom * 0.95)
}

// FitsWindow reports whether the zoom follows the window size.
func (ic *ImageCanvas) FitsWindow() bool {
	return ic.fitToWindow
}

// SetFitToWindow turns fitting on resize on or off.
func (ic *ImageCanvas) SetFitToWindow(fit bool) {
	ic.fitToWindow = fit
	if fit {
		ic.FitToWindow()
	}
}

// Resize lays the view out again and refits when fitting is on.
func (ic *ImageCanvas) Resize(size fyne.Size) {
	ic.BaseWidget.Resize(size)
	if ic.fitToWindow && size.Width > 0 && size.Height > 0 && size != ic.viewSize {
		ic.viewSize = size
		ic.FitToWindow()
	}
}

// MinSize keeps a usable area when the window is small.
func (ic *ImageCanvas) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

// OnZoomChange registers the zoom label updater.
func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// OnRightClick sets a callback for right clicks. It receives the canvas
// point and the absolute window position of the click.
func (ic *ImageCanvas) OnRightClick(callback func(p image.Point, at fyne.Position)) {
	ic.onRightClick = callback
}

// RenderedOutput returns the last frame drawn.
func (ic *ImageCanvas) RenderedOutput() *image.RGBA {
	return ic.lastOutput
}

// Refresh redraws the canvas, resizing it first if the session canvas changed.
func (ic *ImageCanvas) Refresh() {
	want := ic.contentSize()
	if want != ic.imgSize {
		ic.updateContentSize()
		return
	}
	ic.raster.Refresh()
}

func (ic *ImageCanvas) contentSize() fyne.Size {
	size := ic.size
	return fyne.NewSize(float32(float64(size.X)*ic.zoom), float32(float64(size.Y)*ic.zoom))
}

func (ic *ImageCanvas) updateContentSize() {
	ic.imgSize = ic.contentSize()
	ic.raster.SetMinSize(ic.imgSize)
	if ic.content == nil {
		return
	}
	ic.content.Resize(ic.imgSize)
	ic.content.Refresh()
	ic.scroll.inner.Refresh()
}

// draw renders the session; fyne scales the frame to the raster size.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	var (
		out *image.RGBA
		err error
	)
	ic.guard.Do(func(s *app.Session) {
		out, err = s.Render()
		if err != nil {
			s.Logger().Error("render canvas", "err", err)
		}
	})
	if err != nil {
		if ic.lastOutput != nil {
			return ic.lastOutput
		}
		return image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	}
	ic.lastOutput = out
	return out
}

func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ic.scroll)
}
