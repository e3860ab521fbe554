package panels

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"layercanvas/internal/app"
	"layercanvas/internal/overlay"
	"layercanvas/ui/canvas"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

var (
	lineStyles = []overlay.LineStyle{overlay.Solid, overlay.Dashed, overlay.Dotted, overlay.DashDot}
	alignments = []overlay.Align{overlay.AlignLeft, overlay.AlignCenter, overlay.AlignRight}
)

// DrawPanel holds the pen and text settings and lists the text elements.
type DrawPanel struct {
	guard *canvas.Guard
	win   fyne.Window

	// pen and style are only touched on the UI side
	pen   overlay.Pen
	style overlay.TextElement

	mu       sync.Mutex
	texts    []string
	selected int

	penSwatch  *fynecanvas.Rectangle
	textSwatch *fynecanvas.Rectangle
	textList   *widget.List
	counts     *widget.Label

	root fyne.CanvasObject
}

// NewDrawPanel creates the drawing tab.
func NewDrawPanel(g *canvas.Guard, win fyne.Window) *DrawPanel {
	dp := &DrawPanel{
		guard:    g,
		win:      win,
		pen:      overlay.DefaultPen(),
		style:    overlay.NewTextElement("", image.Point{}),
		selected: -1,
	}
	dp.counts = widget.NewLabel("")

	dp.penSwatch = swatch(dp.pen.Color)
	penColour := widget.NewButton("Colour...", func() {
		dp.pickColour("Pen colour", func(c color.Color) {
			dp.pen.Color = c
			dp.penSwatch.FillColor = c
			dp.penSwatch.Refresh()
			dp.applyPen()
		})
	})
	width := widget.NewSlider(1, 30)
	width.Step = 1
	width.Value = dp.pen.Width
	width.OnChangeEnded = func(v float64) {
		dp.pen.Width = v
		dp.applyPen()
	}
	styleNames := make([]string, len(lineStyles))
	for i, s := range lineStyles {
		styleNames[i] = s.String()
	}
	lineStyle := widget.NewSelect(styleNames, func(name string) {
		if s, err := overlay.ParseLineStyle(name); err == nil {
			dp.pen.Style = s
			dp.applyPen()
		}
	})
	lineStyle.SetSelected(dp.pen.Style.String())

	penCard := widget.NewCard("Pen", "", container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Colour", container.NewHBox(dp.penSwatch, penColour)),
			widget.NewFormItem("Width", width),
			widget.NewFormItem("Line", lineStyle),
		),
		container.NewGridWithColumns(2,
			widget.NewButton("Remove Last", func() { g.Do(func(s *app.Session) { s.RemoveLastStroke() }) }),
			widget.NewButton("Clear", func() { g.Do(func(s *app.Session) { s.ClearDrawing() }) }),
		),
	))

	dp.textSwatch = swatch(dp.style.Color)
	textColour := widget.NewButton("Colour...", func() {
		dp.pickColour("Text colour", func(c color.Color) {
			dp.style.Color = c
			dp.textSwatch.FillColor = c
			dp.textSwatch.Refresh()
			dp.applyStyle()
		})
	})
	size := widget.NewSlider(8, 144)
	size.Step = 1
	size.Value = dp.style.Size
	sizeLabel := widget.NewLabel(fmt.Sprintf("%.0f", size.Value))
	size.OnChanged = func(v float64) { sizeLabel.SetText(fmt.Sprintf("%.0f", v)) }
	size.OnChangeEnded = func(v float64) {
		dp.style.Size = v
		dp.applyStyle()
	}
	familyNames := make([]string, len(overlay.Families()))
	for i, f := range overlay.Families() {
		familyNames[i] = f.String()
	}
	family := widget.NewSelect(familyNames, func(name string) {
		if f, err := overlay.ParseFamily(name); err == nil {
			dp.style.Family = f
			dp.applyStyle()
		}
	})
	family.SetSelected(dp.style.Family.String())
	bold := widget.NewCheck("Bold", func(on bool) {
		dp.style.Bold = on
		dp.applyStyle()
	})
	italic := widget.NewCheck("Italic", func(on bool) {
		dp.style.Italic = on
		dp.applyStyle()
	})
	underline := widget.NewCheck("Underline", func(on bool) {
		dp.style.Underline = on
		dp.applyStyle()
	})
	alignNames := make([]string, len(alignments))
	for i, a := range alignments {
		alignNames[i] = a.String()
	}
	align := widget.NewRadioGroup(alignNames, func(name string) {
		for _, a := range alignments {
			if a.String() == name {
				dp.style.Align = a
			}
		}
		dp.applyStyle()
	})
	align.Horizontal = true
	align.SetSelected(dp.style.Align.String())

	dp.textList = widget.NewList(
		func() int {
			dp.mu.Lock()
			defer dp.mu.Unlock()
			return len(dp.texts)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			dp.mu.Lock()
			defer dp.mu.Unlock()
			if id < len(dp.texts) {
				obj.(*widget.Label).SetText(dp.texts[id])
			}
		},
	)
	dp.textList.OnSelected = func(id widget.ListItemID) {
		dp.mu.Lock()
		dp.selected = id
		dp.mu.Unlock()
	}
	dp.textList.OnUnselected = func(widget.ListItemID) {
		dp.mu.Lock()
		dp.selected = -1
		dp.mu.Unlock()
	}
	deleteText := widget.NewButton("Delete", func() {
		dp.mu.Lock()
		i := dp.selected
		dp.mu.Unlock()
		if i < 0 {
			return
		}
		dp.textList.UnselectAll()
		g.Do(func(s *app.Session) { _ = s.DeleteText(i) })
	})

	textCard := widget.NewCard("Text", "Use the text tool to place text", container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("Colour", container.NewHBox(dp.textSwatch, textColour)),
			widget.NewFormItem("Size", container.NewBorder(nil, nil, nil, sizeLabel, size)),
			widget.NewFormItem("Font", family),
		),
		container.NewHBox(bold, italic, underline),
		align,
	))

	elements := container.NewBorder(
		nil,
		container.NewGridWithColumns(2,
			deleteText,
			widget.NewButton("Clear", func() { g.Do(func(s *app.Session) { s.ClearText() }) }),
		),
		nil, nil,
		dp.textList,
	)
	listArea := container.NewGridWrap(fyne.NewSize(260, 180), elements)

	dp.root = container.NewVBox(penCard, textCard, widget.NewCard("Elements", "", container.NewVBox(dp.counts, listArea)))

	g.Do(func(s *app.Session) {
		s.SetPen(dp.pen)
		s.SetTextStyle(dp.style)
		s.On(app.EventOverlayChanged, func(interface{}) { dp.sync(s) })
		dp.sync(s)
	})
	return dp
}

// Container returns the panel's root object.
func (dp *DrawPanel) Container() fyne.CanvasObject {
	return dp.root
}

func (dp *DrawPanel) applyPen() {
	pen := dp.pen
	dp.guard.Do(func(s *app.Session) { s.SetPen(pen) })
}

func (dp *DrawPanel) applyStyle() {
	style := dp.style
	dp.guard.Do(func(s *app.Session) { s.SetTextStyle(style) })
}

// sync copies the overlay contents into the list. It runs inside the guard.
func (dp *DrawPanel) sync(s *app.Session) {
	els := s.Text().Elements()
	texts := make([]string, len(els))
	for i, el := range els {
		texts[i] = fmt.Sprintf("%q at (%d, %d)", el.Text, el.Position.X, el.Position.Y)
	}
	strokes := s.Drawing().Len()

	dp.mu.Lock()
	dp.texts = texts
	if dp.selected >= len(texts) {
		dp.selected = -1
	}
	dp.mu.Unlock()

	dp.textList.Refresh()
	dp.counts.SetText(fmt.Sprintf("%d strokes, %d text elements", strokes, len(texts)))
}

func (dp *DrawPanel) pickColour(title string, apply func(color.Color)) {
	picker := dialog.NewColorPicker(title, "", apply, dp.win)
	picker.Advanced = true
	picker.Show()
}

func swatch(c color.Color) *fynecanvas.Rectangle {
	r := fynecanvas.NewRectangle(c)
	r.SetMinSize(fyne.NewSize(24, 24))
	r.StrokeWidth = 1
	r.StrokeColor = color.Gray{Y: 0x80}
	return r
}
