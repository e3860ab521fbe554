package dialogs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"layercanvas/internal/app"
	"layercanvas/internal/config"
	"layercanvas/internal/generate"
	"layercanvas/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const historyLimit = 50

var countOptions = []string{"1", "2", "3", "4"}

// GenerateDialog asks for a prompt, runs a generation job in the background
// and adds the results to the canvas.
type GenerateDialog struct {
	win    fyne.Window
	guard  *canvas.Guard
	cfg    config.Generation
	store  *generate.Store // may be nil
	logger *slog.Logger

	prompt   *widget.Entry
	negative *widget.Entry
	size     *widget.Select
	count    *widget.Select
	service  *widget.Select
	status   *widget.Label
	progress *widget.ProgressBarInfinite
	run      *widget.Button
	stop     *widget.Button
	history  *widget.List

	mu       sync.Mutex
	entries  []generate.Entry
	selected int
	cancel   context.CancelFunc
}

// NewGenerateDialog creates the dialog. store may be nil when the history
// database could not be opened.
func NewGenerateDialog(win fyne.Window, g *canvas.Guard, cfg config.Generation, store *generate.Store, logger *slog.Logger) *GenerateDialog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GenerateDialog{win: win, guard: g, cfg: cfg, store: store, logger: logger, selected: -1}
}

// Show displays the dialog.
func (d *GenerateDialog) Show() {
	d.prompt = widget.NewMultiLineEntry()
	d.prompt.SetPlaceHolder("Describe the image")
	d.prompt.SetMinRowsVisible(3)
	d.negative = widget.NewEntry()
	d.negative.SetPlaceHolder("Things to avoid (optional)")

	sizes := make([]string, len(generate.Sizes))
	for i, s := range generate.Sizes {
		sizes[i] = s.String()
	}
	d.size = widget.NewSelect(sizes, nil)
	d.size.SetSelected(generate.NewRequest("").Size.String())
	d.count = widget.NewSelect(countOptions, nil)
	d.count.SetSelected(countOptions[0])
	d.service = widget.NewSelect([]string{generate.ServiceStableHorde, generate.ServiceLocal}, nil)
	d.service.SetSelected(serviceName(d.cfg.Service))

	d.status = widget.NewLabel("")
	d.status.Wrapping = fyne.TextWrapWord
	d.progress = widget.NewProgressBarInfinite()
	d.progress.Hide()
	d.run = widget.NewButton("Generate", d.start)
	d.run.Importance = widget.HighImportance
	d.stop = widget.NewButton("Cancel", d.abort)
	d.stop.Disable()

	form := widget.NewForm(
		widget.NewFormItem("Prompt", d.prompt),
		widget.NewFormItem("Negative", d.negative),
		widget.NewFormItem("Size", d.size),
		widget.NewFormItem("Images", d.count),
		widget.NewFormItem("Service", d.service),
	)
	top := container.NewVBox(form, container.NewHBox(d.run, d.stop), d.progress, d.status)

	content := fyne.CanvasObject(top)
	if d.store != nil {
		content = container.NewBorder(top, nil, nil, nil, d.historyCard())
		d.loadHistory()
	}

	dlg := dialog.NewCustom("Generate Image", "Close", content, d.win)
	dlg.SetOnClosed(d.abort)
	dlg.Resize(fyne.NewSize(560, 640))
	dlg.Show()
}

func serviceName(s string) string {
	if strings.EqualFold(s, generate.ServiceLocal) {
		return generate.ServiceLocal
	}
	return generate.ServiceStableHorde
}

// buildRequest turns the form values into a request.
func buildRequest(prompt, negative, size, count string) (generate.Request, error) {
	req := generate.NewRequest(strings.TrimSpace(prompt))
	if req.Prompt == "" {
		return req, generate.ErrEmptyPrompt
	}
	req.NegativePrompt = strings.TrimSpace(negative)
	if size != "" {
		sz, err := generate.ParseSize(size)
		if err != nil {
			return req, err
		}
		req.Size = sz
	}
	if count != "" {
		n, err := strconv.Atoi(count)
		if err != nil || n < 1 {
			return req, fmt.Errorf("image count %q", count)
		}
		req.Count = n
	}
	return req, nil
}

func (d *GenerateDialog) start() {
	req, err := buildRequest(d.prompt.Text, d.negative.Text, d.size.Selected, d.count.Selected)
	if err != nil {
		d.status.SetText(err.Error())
		return
	}
	cfg := d.cfg
	cfg.Service = d.service.Selected
	gen, err := generate.New(cfg, d.logger)
	if err != nil {
		d.status.SetText(err.Error())
		return
	}
	if h, ok := gen.(*generate.Horde); ok {
		h.OnStatus = d.status.SetText
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	d.run.Disable()
	d.stop.Enable()
	d.progress.Show()
	d.progress.Start()
	d.status.SetText(fmt.Sprintf("Generating with %s...", gen.Name()))

	job := &generate.Job{
		Generator: gen,
		OutputDir: config.Expand(cfg.OutputDir),
		Store:     d.store,
		Logger:    d.logger,
	}
	go func() {
		defer cancel()
		res, err := job.Run(ctx, req)
		d.done()

		if len(res.Images) > 0 {
			d.guard.Do(func(s *app.Session) { s.AddImages(res.Images, res.Paths) })
		}
		switch {
		case errors.Is(err, context.Canceled):
			d.status.SetText("Cancelled")
		case errors.Is(err, generate.ErrRateLimited):
			d.status.SetText("The service is busy, try again in a minute")
		case err != nil:
			d.status.SetText("Generation failed: " + err.Error())
		default:
			d.status.SetText(fmt.Sprintf("Generated %d image(s)", len(res.Images)))
		}
		if err != nil {
			d.logger.Warn("generation failed", "service", gen.Name(), "err", err)
		}
		if d.store != nil {
			d.loadHistory()
		}
	}()
}

func (d *GenerateDialog) done() {
	d.mu.Lock()
	d.cancel = nil
	d.mu.Unlock()
	d.progress.Stop()
	d.progress.Hide()
	d.stop.Disable()
	d.run.Enable()
}

func (d *GenerateDialog) abort() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (d *GenerateDialog) historyCard() fyne.CanvasObject {
	d.history = widget.NewList(
		func() int {
			d.mu.Lock()
			defer d.mu.Unlock()
			return len(d.entries)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			d.mu.Lock()
			defer d.mu.Unlock()
			if id < len(d.entries) {
				obj.(*widget.Label).SetText(entryLabel(d.entries[id]))
			}
		},
	)
	d.history.OnSelected = func(id widget.ListItemID) {
		d.mu.Lock()
		d.selected = id
		d.mu.Unlock()
	}

	open := widget.NewButton("Add to Canvas", func() {
		if e, ok := d.selectedEntry(); ok {
			d.guard.Do(func(s *app.Session) { _ = s.Load(e.Path) })
		}
	})
	reuse := widget.NewButton("Reuse Prompt", func() {
		if e, ok := d.selectedEntry(); ok {
			d.prompt.SetText(e.Prompt)
			d.negative.SetText(e.NegativePrompt)
			d.size.SetSelected(generate.Size{Width: e.Width, Height: e.Height}.String())
		}
	})
	remove := widget.NewButton("Forget", func() {
		e, ok := d.selectedEntry()
		if !ok {
			return
		}
		if err := d.store.Delete(context.Background(), e.ID); err != nil {
			d.status.SetText(err.Error())
		}
		d.history.UnselectAll()
		d.loadHistory()
	})
	clearAll := widget.NewButton("Clear", func() {
		dialog.ShowConfirm("Clear History", "Forget every generation? Files stay on disk.", func(ok bool) {
			if !ok {
				return
			}
			if err := d.store.Clear(context.Background()); err != nil {
				d.status.SetText(err.Error())
			}
			d.history.UnselectAll()
			d.loadHistory()
		}, d.win)
	})

	return widget.NewCard("History", "", container.NewBorder(
		nil, container.NewGridWithColumns(4, open, reuse, remove, clearAll), nil, nil, d.history))
}

func (d *GenerateDialog) selectedEntry() (generate.Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected < 0 || d.selected >= len(d.entries) {
		return generate.Entry{}, false
	}
	return d.entries[d.selected], true
}

func (d *GenerateDialog) loadHistory() {
	entries, err := d.store.List(context.Background(), historyLimit)
	if err != nil {
		d.logger.Warn("load generation history", "err", err)
		return
	}
	d.mu.Lock()
	d.entries = entries
	d.selected = -1
	d.mu.Unlock()
	d.history.Refresh()
}

func entryLabel(e generate.Entry) string {
	prompt := e.Prompt
	if r := []rune(prompt); len(r) > 40 {
		prompt = string(r[:37]) + "..."
	}
	return fmt.Sprintf("%s  %dx%d  %s  %s", e.CreatedAt.Format("2006-01-02 15:04"), e.Width, e.Height, e.Service, prompt)
}
