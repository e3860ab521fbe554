package panels

import (
	"fmt"
	"strconv"
	"sync"

	"layercanvas/internal/app"
	"layercanvas/internal/filters"
	"layercanvas/internal/stack"
	"layercanvas/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var pivotNames = []string{"Image center", "Canvas center", "Pointer"}

// AdjustPanel holds the colour sliders, scaling and rotation controls.
type AdjustPanel struct {
	guard *canvas.Guard

	mu       sync.Mutex
	syncing  bool
	selected int // only touched inside the guard

	red, green, blue     *widget.Slider
	brightness, contrast *widget.Slider
	scale                *widget.Slider
	scaleLabel           *widget.Label
	angle                *widget.Entry
	allImages            *widget.Check

	root fyne.CanvasObject
}

// NewAdjustPanel creates the adjust tab.
func NewAdjustPanel(g *canvas.Guard) *AdjustPanel {
	ap := &AdjustPanel{guard: g}

	factor := func() *widget.Slider {
		s := widget.NewSlider(0, 2)
		s.Step = 0.01
		s.Value = 1
		s.OnChanged = func(float64) { ap.preview() }
		return s
	}
	ap.red, ap.green, ap.blue = factor(), factor(), factor()
	ap.brightness, ap.contrast = factor(), factor()

	colourForm := widget.NewForm(
		widget.NewFormItem("Red", ap.red),
		widget.NewFormItem("Green", ap.green),
		widget.NewFormItem("Blue", ap.blue),
		widget.NewFormItem("Brightness", ap.brightness),
		widget.NewFormItem("Contrast", ap.contrast),
	)
	colourCard := widget.NewCard("Colour", "", container.NewVBox(
		colourForm,
		container.NewGridWithColumns(3,
			widget.NewButton("Apply", ap.commit),
			widget.NewButton("Cancel", ap.cancel),
			widget.NewButton("Auto", func() {
				ap.commit()
				g.Do(func(s *app.Session) { _ = s.AutoEnhance(ap.target()) })
			}),
		),
	))

	ap.scaleLabel = widget.NewLabel("100%")
	ap.scale = widget.NewSlider(10, 300)
	ap.scale.Step = 1
	ap.scale.Value = 100
	ap.scale.OnChanged = ap.scaleTo
	ap.scale.OnChangeEnded = func(float64) { ap.endScale() }
	scaleCard := widget.NewCard("Scale", "Percent of the original size", container.NewBorder(nil, nil, nil, ap.scaleLabel, ap.scale))

	ap.angle = widget.NewEntry()
	ap.angle.SetPlaceHolder("degrees")
	ap.allImages = widget.NewCheck("All images", nil)
	rotate := func(deg float64) func() {
		return func() {
			ap.commit()
			if ap.allImages.Checked {
				g.Do(func(s *app.Session) { _ = s.RotateAll(deg) })
				return
			}
			g.Do(func(s *app.Session) { _ = s.Rotate(deg, app.TargetSelected) })
		}
	}
	pivot := widget.NewSelect(pivotNames, func(name string) {
		for i, n := range pivotNames {
			if n == name {
				g.Do(func(s *app.Session) { s.SetPivot(app.Pivot(i)) })
			}
		}
	})
	pivot.SetSelectedIndex(0)

	rotateCard := widget.NewCard("Rotate", "", container.NewVBox(
		container.NewGridWithColumns(3,
			widget.NewButton("-90°", rotate(-90)),
			widget.NewButton("180°", rotate(180)),
			widget.NewButton("+90°", rotate(90)),
		),
		container.NewBorder(nil, nil, nil, widget.NewButton("Rotate", func() {
			deg, err := strconv.ParseFloat(ap.angle.Text, 64)
			if err != nil {
				g.Do(func(s *app.Session) { s.Emit(app.EventStatus, fmt.Sprintf("Invalid angle %q", ap.angle.Text)) })
				return
			}
			rotate(deg)()
		}), ap.angle),
		ap.allImages,
		widget.NewForm(widget.NewFormItem("Pivot", pivot)),
	))

	mirror := func(axis app.Axis) func() {
		return func() {
			ap.commit()
			g.Do(func(s *app.Session) { _ = s.Mirror(axis, ap.target()) })
		}
	}
	mirrorCard := widget.NewCard("Mirror", "", container.NewGridWithColumns(3,
		widget.NewButton("Horizontal", mirror(app.Horizontal)),
		widget.NewButton("Vertical", mirror(app.Vertical)),
		widget.NewButton("Both", mirror(app.Both)),
	))

	ap.root = container.NewVBox(colourCard, scaleCard, rotateCard, mirrorCard)

	g.Do(func(s *app.Session) {
		ap.selected = s.Selected()
		s.On(app.EventSelectionChanged, func(data interface{}) {
			sel, ok := data.(stack.Selection)
			if !ok || sel.Selected == ap.selected {
				return
			}
			ap.selected = sel.Selected
			ap.reset()
		})
		// another command may have committed the preview
		s.On(app.EventHistoryChanged, func(interface{}) {
			if ap.adjusted() && !s.Previewing() {
				ap.reset()
			}
		})
	})
	return ap
}

// Container returns the panel's root object.
func (ap *AdjustPanel) Container() fyne.CanvasObject {
	return ap.root
}

func (ap *AdjustPanel) target() app.Target {
	if ap.allImages.Checked {
		return app.TargetAll
	}
	return app.TargetSelected
}

func (ap *AdjustPanel) adjustment() filters.Adjustment {
	return filters.Adjustment{
		Red:        ap.red.Value,
		Green:      ap.green.Value,
		Blue:       ap.blue.Value,
		Brightness: ap.brightness.Value,
		Contrast:   ap.contrast.Value,
	}
}

// preview shows the slider values on the target record. The first change
// opens the preview; Apply commits it as one step.
func (ap *AdjustPanel) preview() {
	if ap.isSyncing() {
		return
	}
	a := ap.adjustment()
	ap.guard.Do(func(s *app.Session) {
		if !s.Previewing() && s.BeginPreview() != nil {
			return
		}
		_ = s.PreviewAdjust(a)
	})
}

// commit applies an open preview and resets the sliders.
func (ap *AdjustPanel) commit() {
	ap.guard.Do(func(s *app.Session) { s.EndPreview() })
	ap.reset()
}

func (ap *AdjustPanel) cancel() {
	ap.guard.Do(func(s *app.Session) { s.CancelPreview() })
	ap.reset()
}

func (ap *AdjustPanel) scaleTo(pct float64) {
	ap.scaleLabel.SetText(fmt.Sprintf("%.0f%%", pct))
	if ap.isSyncing() {
		return
	}
	ap.guard.Do(func(s *app.Session) {
		if !s.Scaling() && s.BeginScale() != nil {
			return
		}
		_ = s.ScaleTo(pct)
	})
}

func (ap *AdjustPanel) endScale() {
	ap.guard.Do(func(s *app.Session) { s.EndScale() })
}

func (ap *AdjustPanel) isSyncing() bool {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return ap.syncing
}

// adjusted reports whether any colour slider is off neutral.
func (ap *AdjustPanel) adjusted() bool {
	return !ap.adjustment().IsIdentity()
}

// reset puts every slider back to neutral without touching the session. It
// may run inside the guard.
func (ap *AdjustPanel) reset() {
	ap.mu.Lock()
	ap.syncing = true
	ap.mu.Unlock()

	for _, s := range []*widget.Slider{ap.red, ap.green, ap.blue, ap.brightness, ap.contrast} {
		s.SetValue(1)
	}
	ap.scale.SetValue(100)
	ap.scaleLabel.SetText("100%")

	ap.mu.Lock()
	ap.syncing = false
	ap.mu.Unlock()
}
