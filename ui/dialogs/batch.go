package dialogs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"layercanvas/internal/aifx"
	"layercanvas/internal/app"
	"layercanvas/internal/batch"
	"layercanvas/internal/config"
	"layercanvas/internal/export"
	lcimage "layercanvas/internal/image"
	"layercanvas/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

var formatNames = []string{"png", "jpeg", "bmp", "tiff", "gif"}

// BatchDialog writes variations of the selected image to a folder.
type BatchDialog struct {
	win    fyne.Window
	guard  *canvas.Guard
	cfg    *config.Config
	logger *slog.Logger

	spec     *widget.Entry
	outDir   *widget.Entry
	pattern  *widget.Entry
	format   *widget.Select
	ai       *widget.Check
	progress *widget.ProgressBar
	status   *widget.Label
	run      *widget.Button

	cancel context.CancelFunc
}

// NewBatchDialog creates the dialog with the configured defaults.
func NewBatchDialog(win fyne.Window, g *canvas.Guard, cfg *config.Config, logger *slog.Logger) *BatchDialog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BatchDialog{win: win, guard: g, cfg: cfg, logger: logger}
}

// Show displays the dialog.
func (d *BatchDialog) Show() {
	d.spec = widget.NewMultiLineEntry()
	d.spec.SetText(batch.FormatSpec(batch.Defaults()))
	d.spec.SetMinRowsVisible(6)
	d.outDir = widget.NewEntry()
	d.outDir.SetText(d.cfg.Batch.OutputDir)
	browse := widget.NewButton("...", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err == nil && uri != nil {
				d.outDir.SetText(uri.Path())
			}
		}, d.win)
	})
	d.pattern = widget.NewEntry()
	d.pattern.SetText(d.cfg.Batch.Pattern)
	d.format = widget.NewSelect(formatNames, nil)
	d.format.SetSelected(d.cfg.BatchFormat().String())
	d.ai = widget.NewCheck("Include AI effects", nil)
	d.progress = widget.NewProgressBar()
	d.status = widget.NewLabel("")
	d.status.Wrapping = fyne.TextWrapWord
	d.run = widget.NewButton("Run", d.start)
	d.run.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Variations", d.spec),
		widget.NewFormItem("Folder", container.NewBorder(nil, nil, nil, browse, d.outDir)),
		widget.NewFormItem("Names", d.pattern),
		widget.NewFormItem("Format", d.format),
		widget.NewFormItem("", d.ai),
	)
	hint := widget.NewLabel("One type=values line per group. Names may use {original}, {variation}, {type}, {value}, {index} and {timestamp}.")
	hint.Wrapping = fyne.TextWrapWord

	content := container.NewVBox(form, hint, d.run, d.progress, d.status)
	dlg := dialog.NewCustom("Batch Variations", "Close", content, d.win)
	dlg.SetOnClosed(func() {
		if d.cancel != nil {
			d.cancel()
		}
	})
	dlg.Resize(fyne.NewSize(560, 560))
	dlg.Show()
}

// variations reads the variation text, adding the AI effects when asked.
func variations(spec string, withAI bool) ([]batch.Variation, error) {
	vars, err := batch.ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	if withAI {
		for _, e := range aifx.Effects() {
			vars = append(vars, batch.Variation{Type: batch.Custom, Value: e.Name()})
		}
	}
	if len(vars) == 0 {
		return nil, errors.New("no variations")
	}
	return vars, nil
}

func (d *BatchDialog) start() {
	vars, err := variations(d.spec.Text, d.ai.Checked)
	if err != nil {
		d.status.SetText(err.Error())
		return
	}
	format, err := export.ParseFormat(d.format.Selected)
	if err != nil {
		d.status.SetText(err.Error())
		return
	}
	dir := config.Expand(strings.TrimSpace(d.outDir.Text))
	if dir == "" {
		d.status.SetText("Choose an output folder")
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		d.status.SetText(err.Error())
		return
	}

	var (
		src  image.Image
		name string
	)
	d.guard.Do(func(s *app.Session) {
		i := s.Selected()
		if i < 0 {
			i = s.Current()
		}
		if r := s.Record(i); r != nil {
			src = lcimage.CopyRGBA(r.Rendered())
			name = r.Path
		}
	})
	if src == nil {
		d.status.SetText(app.ErrNoTarget.Error())
		return
	}
	if name == "" {
		name = "canvas"
	}

	p := batch.NewProcessor(dir)
	p.Namer = batch.Namer{Pattern: d.pattern.Text, Format: format}
	p.Options = d.cfg.ExportOptions()
	p.Logger = d.logger
	aifx.RegisterAll(p)
	p.Progress = func(done, total int, res batch.Result) {
		d.progress.SetValue(float64(done) / float64(total))
		d.status.SetText(fmt.Sprintf("%d of %d: %s", done, total, res.Variation))
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.run.Disable()
	d.progress.SetValue(0)

	go func() {
		defer cancel()
		report, err := p.Run(ctx, src, name, vars)
		d.run.Enable()
		if err != nil {
			d.status.SetText("Stopped: " + err.Error())
			return
		}
		msg := fmt.Sprintf("Wrote %d of %d variations to %s", report.Succeeded(), len(vars), dir)
		if failed := report.Failed(); len(failed) > 0 {
			msg += fmt.Sprintf(" (%d failed)", len(failed))
			d.logger.Warn("batch variations failed", "err", report.Err())
		}
		d.status.SetText(msg)
		d.guard.Do(func(s *app.Session) { s.Emit(app.EventStatus, msg) })
	}()
}
