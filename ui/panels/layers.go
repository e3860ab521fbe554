package panels

import (
	"fmt"
	"path/filepath"
	"sync"

	"layercanvas/internal/app"
	"layercanvas/internal/stack"
	"layercanvas/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// layerRow is what the list shows for one record. Rows are copied out of the
// session so list callbacks never need the guard.
type layerRow struct {
	index    int
	name     string
	width    int
	height   int
	rotation float64
	visible  bool
}

func (r layerRow) detail() string {
	if r.rotation != 0 {
		return fmt.Sprintf("%dx%d  %.0f°", r.width, r.height, r.rotation)
	}
	return fmt.Sprintf("%dx%d", r.width, r.height)
}

// LayersPanel lists the records top to bottom.
type LayersPanel struct {
	guard *canvas.Guard

	mu       sync.Mutex
	rows     []layerRow
	selected int
	syncing  bool

	list    *widget.List
	summary *widget.Label
	root    fyne.CanvasObject
}

// NewLayersPanel creates the layers tab.
func NewLayersPanel(g *canvas.Guard) *LayersPanel {
	lp := &LayersPanel{guard: g, selected: stack.None}
	lp.summary = widget.NewLabel("No images")

	lp.list = widget.NewList(
		lp.length,
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, widget.NewCheck("", nil), widget.NewLabel(""), widget.NewLabel(""))
		},
		lp.updateItem,
	)
	lp.list.OnSelected = func(id widget.ListItemID) {
		if lp.isSyncing() {
			return
		}
		if row, ok := lp.row(id); ok {
			g.Do(func(s *app.Session) { s.Select(row.index) })
		}
	}

	buttons := container.NewGridWithColumns(3,
		widget.NewButton("Front", func() { g.Do(func(s *app.Session) { s.BringToFront() }) }),
		widget.NewButton("Back", func() { g.Do(func(s *app.Session) { s.SendToBack() }) }),
		widget.NewButton("Delete", func() { g.Do(func(s *app.Session) { s.Delete() }) }),
		widget.NewButton("Center", func() { g.Do(func(s *app.Session) { _ = s.Center(app.TargetSelected) }) }),
		widget.NewButton("Reset", func() { g.Do(func(s *app.Session) { _ = s.ResetToOriginal(app.TargetSelected) }) }),
		widget.NewButton("Bake", func() { g.Do(func(s *app.Session) { _ = s.BakeRotation(app.TargetSelected) }) }),
	)

	lp.root = container.NewBorder(
		lp.summary,
		widget.NewCard("", "Selected image", buttons),
		nil, nil,
		lp.list,
	)

	g.Do(func(s *app.Session) {
		s.On(app.EventStackChanged, func(interface{}) { lp.sync(s) })
		s.On(app.EventSelectionChanged, func(interface{}) { lp.sync(s) })
		lp.sync(s)
	})
	return lp
}

// Container returns the panel's root object.
func (lp *LayersPanel) Container() fyne.CanvasObject {
	return lp.root
}

// sync copies the stack into rows. It runs inside the guard.
func (lp *LayersPanel) sync(s *app.Session) {
	records := s.Records()
	rows := make([]layerRow, 0, len(records))
	listSel := -1
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if i == s.Selected() {
			listSel = len(rows)
		}
		rows = append(rows, layerRow{
			index:    i,
			name:     layerName(r.Path, i),
			width:    r.Width(),
			height:   r.Height(),
			rotation: r.Rotation(),
			visible:  r.Visible,
		})
	}

	lp.mu.Lock()
	lp.rows = rows
	lp.selected = listSel
	lp.syncing = true
	lp.mu.Unlock()

	if listSel >= 0 {
		lp.list.Select(listSel)
	} else {
		lp.list.UnselectAll()
	}
	lp.list.Refresh()

	lp.mu.Lock()
	lp.syncing = false
	lp.mu.Unlock()

	switch len(rows) {
	case 0:
		lp.summary.SetText("No images")
	case 1:
		lp.summary.SetText("1 image")
	default:
		lp.summary.SetText(fmt.Sprintf("%d images", len(rows)))
	}
}

func (lp *LayersPanel) isSyncing() bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.syncing
}

func (lp *LayersPanel) length() int {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return len(lp.rows)
}

func (lp *LayersPanel) row(id widget.ListItemID) (layerRow, bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if id < 0 || id >= len(lp.rows) {
		return layerRow{}, false
	}
	return lp.rows[id], true
}

func (lp *LayersPanel) updateItem(id widget.ListItemID, obj fyne.CanvasObject) {
	row, ok := lp.row(id)
	if !ok {
		return
	}
	c := obj.(*fyne.Container)
	name := c.Objects[0].(*widget.Label)
	check := c.Objects[1].(*widget.Check)
	detail := c.Objects[2].(*widget.Label)

	name.SetText(row.name)
	detail.SetText(row.detail())

	// OnChanged is detached while the state is set so SetChecked does not
	// call back into the session.
	check.OnChanged = nil
	check.SetChecked(row.visible)
	check.OnChanged = func(on bool) {
		lp.guard.Do(func(s *app.Session) { s.SetVisible(row.index, on) })
	}
}

func layerName(path string, i int) string {
	if path == "" {
		return fmt.Sprintf("Image %d", i+1)
	}
	return filepath.Base(path)
}
