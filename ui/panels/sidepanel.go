// Package panels provides the side panel UI components.
package panels

import (
	"layercanvas/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel holds the tabbed controls next to the canvas.
type SidePanel struct {
	guard *canvas.Guard
	win   fyne.Window

	layers *LayersPanel
	adjust *AdjustPanel
	draw   *DrawPanel
	tabs   *container.AppTabs
}

// NewSidePanel creates the side panel. Every session call it makes goes
// through g.
func NewSidePanel(g *canvas.Guard, win fyne.Window) *SidePanel {
	sp := &SidePanel{guard: g, win: win}
	sp.layers = NewLayersPanel(g)
	sp.adjust = NewAdjustPanel(g)
	sp.draw = NewDrawPanel(g, win)

	sp.tabs = container.NewAppTabs(
		container.NewTabItem("Layers", sp.layers.Container()),
		container.NewTabItem("Adjust", container.NewVScroll(sp.adjust.Container())),
		container.NewTabItem("Draw", container.NewVScroll(sp.draw.Container())),
	)
	sp.tabs.SetTabLocation(container.TabLocationTop)
	return sp
}

// Container returns the panel's root object.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.tabs
}

// ShowDraw switches to the drawing tab.
func (sp *SidePanel) ShowDraw() {
	sp.tabs.SelectIndex(2)
}

// Commit finishes any slider preview still open on the adjust tab.
func (sp *SidePanel) Commit() {
	sp.adjust.commit()
}
