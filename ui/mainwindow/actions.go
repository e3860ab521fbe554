package mainwindow

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"layercanvas/internal/aifx"
	"layercanvas/internal/app"
	"layercanvas/internal/config"
	"layercanvas/internal/export"
	"layercanvas/internal/filters"
	lcimage "layercanvas/internal/image"
	"layercanvas/internal/ocr"
	"layercanvas/internal/ocr/tesseract"
	"layercanvas/ui/dialogs"
	"layercanvas/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
)

const (
	ocrTimeout       = time.Minute
	defaultIntensity = 0.8
)

// label turns an identifier such as "edge_enhance" into "Edge enhance".
func label(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	mw.watchItem = fyne.NewMenuItem("Watch Folder...", mw.onToggleWatch)
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Selected As...", mw.onSaveSelected),
		fyne.NewMenuItem("Save Composite As...", mw.onSaveComposite),
		fyne.NewMenuItem("Save Canvas As...", mw.onSaveCanvas),
		fyne.NewMenuItemSeparator(),
		mw.watchItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	mw.redoItem = fyne.NewMenuItem("Redo", mw.onRedo)
	editMenu := fyne.NewMenu("Edit",
		mw.undoItem,
		mw.redoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Bring to Front", mw.session(func(s *app.Session) { s.BringToFront() })),
		fyne.NewMenuItem("Send to Back", mw.session(func(s *app.Session) { s.SendToBack() })),
		fyne.NewMenuItem("Delete", mw.session(func(s *app.Session) { s.Delete() })),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Drawing", mw.session(func(s *app.Session) { s.ClearDrawing() })),
		fyne.NewMenuItem("Clear Text", mw.session(func(s *app.Session) { s.ClearText() })),
		fyne.NewMenuItem("Reset Canvas", mw.onResetCanvas),
	)

	rotate := func(deg float64) func() {
		return mw.session(func(s *app.Session) { _ = s.Rotate(deg, app.TargetSelected) })
	}
	mirror := func(axis app.Axis) func() {
		return mw.session(func(s *app.Session) { _ = s.Mirror(axis, app.TargetSelected) })
	}
	imageMenu := fyne.NewMenu("Image",
		fyne.NewMenuItem("Rotate Left 90°", rotate(90)),
		fyne.NewMenuItem("Rotate Right 90°", rotate(-90)),
		fyne.NewMenuItem("Rotate 180°", rotate(180)),
		fyne.NewMenuItem("Rotate...", mw.onRotate),
		fyne.NewMenuItem("Rotate All Left 90°", mw.session(func(s *app.Session) { _ = s.RotateAll(90) })),
		fyne.NewMenuItem("Rotate Canvas Left 90°", mw.session(func(s *app.Session) { _ = s.RotateCanvas(90) })),
		fyne.NewMenuItem("Apply Rotation", mw.session(func(s *app.Session) { _ = s.BakeRotation(app.TargetSelected) })),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Mirror Horizontally", mirror(app.Horizontal)),
		fyne.NewMenuItem("Mirror Vertically", mirror(app.Vertical)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Crop...", mw.onCrop),
		fyne.NewMenuItem("Resize...", mw.onResize),
		fyne.NewMenuItem("Resize All...", mw.onResizeAll),
		fyne.NewMenuItem("Canvas Size...", mw.onCanvasSize),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Center", mw.session(func(s *app.Session) { _ = s.Center(app.TargetSelected) })),
		fyne.NewMenuItem("Auto Enhance", mw.session(func(s *app.Session) { _ = s.AutoEnhance(app.TargetSelected) })),
		fyne.NewMenuItem("Reset to Original", mw.session(func(s *app.Session) { _ = s.ResetToOriginal(app.TargetSelected) })),
	)

	var filterItems []*fyne.MenuItem
	for _, k := range filters.Kinds() {
		filterItems = append(filterItems, fyne.NewMenuItem(label(k.String()),
			mw.session(func(s *app.Session) { _ = s.ApplyFilter(k, app.TargetSelected) })))
	}
	effects := fyne.NewMenuItem("Effects", nil)
	for _, e := range filters.Effects() {
		effects.ChildMenu = appendItem(effects.ChildMenu, fyne.NewMenuItem(label(e.String()),
			mw.session(func(s *app.Session) { _ = s.ApplyEffect(e, app.TargetSelected) })))
	}
	styles := fyne.NewMenuItem("Styles", nil)
	for _, st := range filters.Styles() {
		styles.ChildMenu = appendItem(styles.ChildMenu, fyne.NewMenuItem(label(st.String())+"...", func() {
			dialogs.ShowIntensity(mw.Window, label(st.String()), defaultIntensity, func(v float64) {
				mw.guard.Do(func(s *app.Session) { _ = s.ApplyStyle(st, v, app.TargetSelected) })
			})
		}))
	}
	filterItems = append(filterItems, fyne.NewMenuItemSeparator(), effects, styles)
	filterMenu := fyne.NewMenu("Filters", filterItems...)

	var aiItems []*fyne.MenuItem
	for _, e := range aifx.Effects() {
		aiItems = append(aiItems, fyne.NewMenuItem(label(e.String()), mw.session(func(s *app.Session) {
			_ = s.Apply(label(e.String()), app.TargetSelected, app.Transform(e.Func()))
		})))
	}
	aiItems = append(aiItems,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Recognize Text", mw.onRecognizeText),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Generate Image...", mw.onGenerate),
		fyne.NewMenuItem("Batch Variations...", mw.onBatch),
	)
	aiMenu := fyne.NewMenu("AI", aiItems...)

	mw.fitToWindowItem = fyne.NewMenuItem("Fit to Window", mw.onToggleFitToWindow)
	mw.fitToWindowItem.Checked = mw.canvas.FitsWindow()
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	mw.toolItems = make(map[app.Tool]*fyne.MenuItem)
	var toolItems []*fyne.MenuItem
	for _, t := range toolOrder {
		item := fyne.NewMenuItem(label(t.String()), func() { mw.setTool(t) })
		item.Checked = t == app.ToolSelect
		mw.toolItems[t] = item
		toolItems = append(toolItems, item)
	}
	toolsMenu := fyne.NewMenu("Tools", toolItems...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, imageMenu, filterMenu, aiMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

func appendItem(m *fyne.Menu, item *fyne.MenuItem) *fyne.Menu {
	if m == nil {
		return fyne.NewMenu("", item)
	}
	m.Items = append(m.Items, item)
	return m
}

// setupShortcuts binds the common keys on the window canvas.
func (mw *MainWindow) setupShortcuts() {
	bind := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		mw.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) { fn() })
	}
	ctrl := fyne.KeyModifierShortcutDefault
	bind(fyne.KeyZ, ctrl, mw.onUndo)
	bind(fyne.KeyY, ctrl, mw.onRedo)
	bind(fyne.KeyZ, ctrl|fyne.KeyModifierShift, mw.onRedo)
	bind(fyne.KeyO, ctrl, mw.onOpenImage)
	bind(fyne.KeyS, ctrl, mw.onSaveCanvas)
	bind(fyne.KeyEqual, ctrl, mw.onZoomIn)
	bind(fyne.KeyMinus, ctrl, mw.onZoomOut)
	bind(fyne.Key0, ctrl, mw.onActualSize)

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.guard.Do(func(s *app.Session) { s.Delete() })
		case fyne.KeyEscape:
			mw.setTool(app.ToolSelect)
		}
	})
}

// session returns a menu action running fn inside the guard.
func (mw *MainWindow) session(fn func(s *app.Session)) func() {
	return func() {
		mw.sidePanel.Commit()
		mw.guard.Do(fn)
	}
}

func (mw *MainWindow) onUndo() {
	mw.sidePanel.Commit()
	mw.guard.Do(func(s *app.Session) { s.Undo() })
}

func (mw *MainWindow) onRedo() {
	mw.sidePanel.Commit()
	mw.guard.Do(func(s *app.Session) { s.Redo() })
}

func (mw *MainWindow) onResetCanvas() {
	dialog.ShowConfirm("Reset Canvas", "Remove every image from the canvas? This can be undone.", func(ok bool) {
		if ok {
			mw.guard.Do(func(s *app.Session) { s.ResetCanvas() })
		}
	}, mw.Window)
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		var loadErr error
		mw.guard.Do(func(s *app.Session) { loadErr = s.Load(path) })
		if loadErr != nil {
			dialog.ShowError(loadErr, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(lcimage.SupportedFormats))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenFolder() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		mw.prefs.SetString(prefs.KeyLastDir, dir)
		var loadErr error
		mw.guard.Do(func(s *app.Session) { _, loadErr = s.LoadFolder(dir) })
		if loadErr != nil {
			dialog.ShowError(loadErr, mw.Window)
		}
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// saveAs asks for a file name and hands the path, with a usable image
// extension, to save.
func (mw *MainWindow) saveAs(name string, save func(s *app.Session, path string) error) {
	mw.sidePanel.Commit()
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if _, err := export.FormatFor(path); err != nil {
			// the dialog already created the bare name
			_ = os.Remove(path)
			path += ".png"
		}
		mw.saveLastDir(path)
		var saveErr error
		mw.guard.Do(func(s *app.Session) { saveErr = save(s, path) })
		if saveErr != nil {
			dialog.ShowError(saveErr, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(name)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSelected() {
	name := "image.png"
	mw.guard.Do(func(s *app.Session) {
		i := s.Selected()
		if i < 0 {
			i = s.Current()
		}
		if r := s.Record(i); r != nil && r.Path != "" {
			base := filepath.Base(r.Path)
			name = strings.TrimSuffix(base, filepath.Ext(base)) + "_edited.png"
		}
	})
	mw.saveAs(name, func(s *app.Session, path string) error {
		return s.SaveSelected(path, mw.cfg.ExportOptions())
	})
}

func (mw *MainWindow) onSaveComposite() {
	mw.saveAs("composite.png", func(s *app.Session, path string) error {
		return s.SaveComposite(path, mw.cfg.ExportOptions())
	})
}

func (mw *MainWindow) onSaveCanvas() {
	mw.saveAs("canvas.png", func(s *app.Session, path string) error {
		return s.SaveCanvas(path, mw.cfg.ExportOptions())
	})
}

// targetSize returns the size of the record single-record commands act on.
func (mw *MainWindow) targetSize() (image.Point, bool) {
	var (
		size image.Point
		ok   bool
	)
	mw.guard.Do(func(s *app.Session) {
		i := s.Selected()
		if i < 0 {
			i = s.Current()
		}
		if r := s.Record(i); r != nil {
			size, ok = image.Pt(r.Width(), r.Height()), true
		} else {
			s.Emit(app.EventStatus, app.ErrNoTarget.Error())
		}
	})
	return size, ok
}

func (mw *MainWindow) onRotate() {
	dialogs.ShowRotate(mw.Window, func(deg float64) {
		mw.guard.Do(func(s *app.Session) { _ = s.Rotate(deg, app.TargetSelected) })
	})
}

func (mw *MainWindow) onCrop() {
	mw.sidePanel.Commit()
	size, ok := mw.targetSize()
	if !ok {
		return
	}
	dialogs.ShowCrop(mw.Window, size, func(area image.Rectangle) {
		mw.guard.Do(func(s *app.Session) { _ = s.Crop(area) })
	})
}

func (mw *MainWindow) onResize() {
	mw.sidePanel.Commit()
	size, ok := mw.targetSize()
	if !ok {
		return
	}
	dialogs.ShowResize(mw.Window, "Resize Image", size, func(w, h int) {
		mw.guard.Do(func(s *app.Session) { _ = s.Resize(w, h) })
	})
}

func (mw *MainWindow) onResizeAll() {
	mw.sidePanel.Commit()
	// no common size to start from, so the width alone drives the aspect
	dialogs.ShowResize(mw.Window, "Resize All Images", image.Pt(800, 600), func(w, h int) {
		mw.guard.Do(func(s *app.Session) { _ = s.ResizeAll(w, h) })
	})
}

func (mw *MainWindow) onCanvasSize() {
	var size image.Point
	mw.guard.Do(func(s *app.Session) { size = s.CanvasSize() })
	dialogs.ShowResize(mw.Window, "Canvas Size", size, func(w, h int) {
		mw.guard.Do(func(s *app.Session) { s.SetCanvasSize(w, h) })
	})
}

// recognizer opens the OCR engine on first use.
func (mw *MainWindow) recognizer() (ocr.Recognizer, error) {
	if mw.engine != nil {
		return mw.engine, nil
	}
	e, err := tesseract.NewEngine()
	if err != nil {
		return nil, err
	}
	mw.engine = e
	return e, nil
}

func (mw *MainWindow) onRecognizeText() {
	mw.sidePanel.Commit()
	rec, err := mw.recognizer()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Recognizing text...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ocrTimeout)
		defer cancel()
		mw.guard.Do(func(s *app.Session) {
			if _, err := s.RecognizeText(ctx, rec, ocr.DefaultOptions()); err != nil {
				mw.logger.Warn("recognize text", "err", err)
			}
		})
	}()
}

func (mw *MainWindow) onGenerate() {
	dialogs.NewGenerateDialog(mw.Window, mw.guard, mw.cfg.Generation, mw.store, mw.logger).Show()
}

func (mw *MainWindow) onBatch() {
	mw.sidePanel.Commit()
	dialogs.NewBatchDialog(mw.Window, mw.guard, mw.cfg, mw.logger).Show()
}

func (mw *MainWindow) onToggleWatch() {
	if mw.watcher != nil {
		mw.stopWatching()
		mw.updateStatus("Stopped watching folder")
		return
	}
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		if err := mw.Watch(uri.Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	if dir := config.Expand(mw.cfg.Watch.Dir); dir != "" {
		if loc, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			fd.SetLocation(loc)
		}
	}
	fd.Show()
}

// Watch adds every image that appears in dir to the canvas until the
// window closes or watching is turned off.
func (mw *MainWindow) Watch(dir string) error {
	mw.stopWatching()
	w, err := app.NewFolderWatcher(dir, mw.cfg.Watch.Settle, mw.logger)
	if err != nil {
		return err
	}
	w.OnImage(func(path string) {
		mw.guard.Do(func(s *app.Session) { _ = s.Load(path) })
	})
	if err := w.Start(); err != nil {
		return err
	}
	mw.watcher = w
	mw.watchItem.Label = "Stop Watching " + filepath.Base(dir)
	mw.refreshMenu()
	mw.updateStatus("Watching " + dir)
	return nil
}

func (mw *MainWindow) stopWatching() {
	if mw.watcher == nil {
		return
	}
	mw.watcher.Stop()
	mw.watcher = nil
	mw.watchItem.Label = "Watch Folder..."
	mw.refreshMenu()
}
