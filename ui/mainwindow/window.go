// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"layercanvas/internal/app"
	"layercanvas/internal/config"
	"layercanvas/internal/generate"
	"layercanvas/internal/ocr/tesseract"
	"layercanvas/internal/stack"
	"layercanvas/internal/version"
	"layercanvas/ui/canvas"
	"layercanvas/ui/dialogs"
	"layercanvas/ui/panels"
	"layercanvas/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const title = "LayerCanvas"

// Options carries what the window needs besides the session.
type Options struct {
	Config *config.Config
	Prefs  *prefs.Prefs
	Logger *slog.Logger
	Store  *generate.Store // generation history, may be nil
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	guard  *canvas.Guard
	cfg    *config.Config
	prefs  *prefs.Prefs
	logger *slog.Logger
	store  *generate.Store

	canvas    *canvas.ImageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label
	toolSel   *widget.Select

	watcher *app.FolderWatcher
	engine  *tesseract.Engine

	// Menu items that need state tracking
	undoItem        *fyne.MenuItem
	redoItem        *fyne.MenuItem
	fitToWindowItem *fyne.MenuItem
	watchItem       *fyne.MenuItem
	toolItems       map[app.Tool]*fyne.MenuItem

	syncingTool bool
}

// New creates the main window for the guarded session.
func New(fyneApp fyne.App, g *canvas.Guard, opts Options) *MainWindow {
	win := fyneApp.NewWindow(title)
	fyneApp.Settings().SetTheme(&canvasTheme{})

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		guard:  g,
		cfg:    opts.Config,
		prefs:  opts.Prefs,
		logger: opts.Logger,
		store:  opts.Store,
	}
	if mw.cfg == nil {
		mw.cfg = config.Default()
	}
	if mw.prefs == nil {
		mw.prefs = prefs.Load("")
	}
	if mw.logger == nil {
		mw.logger = slog.New(slog.DiscardHandler)
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	win.Resize(fyne.NewSize(
		float32(mw.prefs.Float(prefs.KeyWidth, 1400)),
		float32(mw.prefs.Float(prefs.KeyHeight, 900)),
	))
	win.SetOnClosed(mw.shutdown)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas(mw.guard)
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})
	mw.canvas.OnRightClick(mw.showContextMenu)

	mw.sidePanel = panels.NewSidePanel(mw.guard, mw.Window)
	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(toolbar, nil, nil, nil, mw.canvas)

	split := container.NewHSplit(mw.sidePanel.Container(), canvasArea)
	split.SetOffset(0.25)

	content := container.NewBorder(nil, container.NewPadded(mw.statusBar), nil, nil, split)
	mw.SetContent(content)

	if zoom := mw.prefs.Float(prefs.KeyZoom, 1); zoom > 0 {
		mw.canvas.SetZoom(zoom)
	}
	if mw.prefs.Bool(prefs.KeyFitToWindow, false) {
		mw.canvas.SetFitToWindow(true)
	}
}

var toolOrder = []app.Tool{app.ToolSelect, app.ToolDraw, app.ToolText, app.ToolCrop, app.ToolRotate, app.ToolErase}

// createToolbar creates the toolbar with zoom, tool and history controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.zoomLabel = widget.NewLabel(fmt.Sprintf("%.0f%%", mw.canvas.Zoom()*100))

	names := make([]string, len(toolOrder))
	for i, t := range toolOrder {
		names[i] = label(t.String())
	}
	mw.toolSel = widget.NewSelect(names, func(name string) {
		if mw.syncingTool {
			return
		}
		for _, t := range toolOrder {
			if label(t.String()) == name {
				mw.setTool(t)
			}
		}
	})
	mw.toolSel.SetSelected(label(app.ToolSelect.String()))

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onToggleFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
		mw.zoomLabel,
		widget.NewSeparator(),
		widget.NewLabel("Tool:"),
		mw.toolSel,
		widget.NewSeparator(),
		widget.NewButton("Undo", mw.onUndo),
		widget.NewButton("Redo", mw.onRedo),
	)
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.guard.Do(func(s *app.Session) {
		s.On(app.EventStatus, func(data interface{}) {
			if msg, ok := data.(string); ok {
				mw.updateStatus(msg)
			}
		})

		s.On(app.EventHistoryChanged, func(interface{}) {
			mw.undoItem.Disabled = !s.CanUndo()
			mw.redoItem.Disabled = !s.CanRedo()
			mw.refreshMenu()
		})

		s.On(app.EventStackChanged, func(interface{}) {
			switch n := s.Len(); n {
			case 0:
				mw.SetTitle(title)
			case 1:
				mw.SetTitle(title + " - 1 image")
			default:
				mw.SetTitle(fmt.Sprintf("%s - %d images", title, n))
			}
		})

		s.On(app.EventImageLoaded, func(interface{}) {
			if mw.canvas.FitsWindow() {
				mw.canvas.FitToWindow()
			}
		})

		s.On(app.EventTextRequested, func(data interface{}) {
			p, ok := data.(image.Point)
			if !ok {
				return
			}
			dialogs.ShowText(mw.Window, p, func(text string) {
				mw.guard.Do(func(s *app.Session) { _, _ = s.AddText(text, p) })
			})
		})

		s.On(app.EventToolChanged, func(data interface{}) {
			if t, ok := data.(app.Tool); ok {
				mw.syncTool(t)
			}
		})

		mw.undoItem.Disabled = !s.CanUndo()
		mw.redoItem.Disabled = !s.CanRedo()
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) refreshMenu() {
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir remembers the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

func (mw *MainWindow) setTool(t app.Tool) {
	mw.sidePanel.Commit()
	mw.guard.Do(func(s *app.Session) { s.SetTool(t) })
	if t == app.ToolDraw || t == app.ToolText {
		mw.sidePanel.ShowDraw()
	}
}

// syncTool reflects the session's tool in the toolbar and menu. It runs
// inside the guard, so the select's callback must not fire.
func (mw *MainWindow) syncTool(t app.Tool) {
	mw.syncingTool = true
	mw.toolSel.SetSelected(label(t.String()))
	mw.syncingTool = false
	for tool, item := range mw.toolItems {
		item.Checked = tool == t
	}
	mw.refreshMenu()
}

func (mw *MainWindow) showContextMenu(p image.Point, at fyne.Position) {
	hit := stack.None
	mw.guard.Do(func(s *app.Session) {
		hit = s.SelectAt(p)
	})
	if hit < 0 {
		return
	}
	do := func(fn func(s *app.Session)) func() {
		return func() { mw.guard.Do(fn) }
	}
	menu := fyne.NewMenu("",
		fyne.NewMenuItem("Bring to Front", do(func(s *app.Session) { s.BringToFront() })),
		fyne.NewMenuItem("Send to Back", do(func(s *app.Session) { s.SendToBack() })),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Center", do(func(s *app.Session) { _ = s.Center(app.TargetSelected) })),
		fyne.NewMenuItem("Apply Rotation", do(func(s *app.Session) { _ = s.BakeRotation(app.TargetSelected) })),
		fyne.NewMenuItem("Reset to Original", do(func(s *app.Session) { _ = s.ResetToOriginal(app.TargetSelected) })),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save As...", mw.onSaveSelected),
		fyne.NewMenuItem("Delete", do(func(s *app.Session) { s.Delete() })),
	)
	widget.ShowPopUpMenuAtPosition(menu, mw.Canvas(), at)
}

// shutdown stops background work and persists the UI state.
func (mw *MainWindow) shutdown() {
	mw.stopWatching()
	if mw.engine != nil {
		if err := mw.engine.Close(); err != nil {
			mw.logger.Warn("close ocr engine", "err", err)
		}
	}
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyHeight, float64(size.Height))
	mw.prefs.SetFloat(prefs.KeyZoom, mw.canvas.Zoom())
	mw.prefs.SetBool(prefs.KeyFitToWindow, mw.canvas.FitsWindow())
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("save ui state", "err", err)
	}
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.FitsWindow()
	mw.canvas.SetFitToWindow(enabled)
	mw.fitToWindowItem.Checked = enabled
	mw.refreshMenu()
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.FitsWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Checked = false
		mw.refreshMenu()
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+title,
		fmt.Sprintf("%s v%s\n\n"+
			"Arrange, edit and annotate images on one canvas.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			title, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
