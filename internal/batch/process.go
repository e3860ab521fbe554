package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"layercanvas/internal/export"
	lcimage "layercanvas/internal/image"
)

// DefaultPattern names outputs after the source, the variation and its position.
const DefaultPattern = "{original}_{variation}_{index}"

// Namer builds output file names. Placeholders:
//
//	{original}, {name}           source file name without extension
//	{variation}, {transformation} type and value, e.g. rotation_90
//	{type}, {value}              the two halves of {variation}
//	{index}                      position in the run, from 0
//	{timestamp}                  run time as YYYYmmdd_HHMMSS
type Namer struct {
	Pattern string
	Format  export.Format
	Now     func() time.Time
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")

// Name returns the file name for variation v of original.
func (n Namer) Name(original string, v Variation, index int) string {
	pattern := n.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	name := strings.NewReplacer(
		"{original}", base,
		"{name}", base,
		"{variation}", v.String(),
		"{transformation}", v.String(),
		"{type}", v.Type.String(),
		"{value}", v.Label(),
		"{index}", strconv.Itoa(index),
		"{timestamp}", now().Format("20060102_150405"),
	).Replace(pattern)
	return unsafeChars.Replace(name) + n.Format.Ext()
}

// Func is a custom variation handler.
type Func = func(image.Image) (image.Image, error)

// Result is the outcome of one variation.
type Result struct {
	Variation Variation
	Path      string
	Err       error
}

// Report collects the outcome of a run.
type Report struct {
	Results []Result
}

// Succeeded returns how many variations were written.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the variations that could not be produced or saved.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.Variation, res.Err))
	}
	return errors.Join(errs...)
}

// Processor writes variations of a source image to a directory.
type Processor struct {
	OutputDir string
	Namer     Namer
	Options   export.Options
	Logger    *slog.Logger

	// Custom handlers keyed by Variation.Value for Custom variations.
	Custom map[string]Func

	// Progress, when set, is called after each variation.
	Progress func(done, total int, res Result)
}

// NewProcessor creates a processor writing PNG files with the default pattern.
func NewProcessor(outputDir string) *Processor {
	return &Processor{
		OutputDir: outputDir,
		Namer:     Namer{Pattern: DefaultPattern, Format: export.PNG},
		Options:   export.DefaultOptions(),
		Logger:    slog.New(slog.DiscardHandler),
		Custom:    make(map[string]Func),
	}
}

// Register adds a custom handler.
func (p *Processor) Register(name string, fn Func) {
	if p.Custom == nil {
		p.Custom = make(map[string]Func)
	}
	p.Custom[name] = fn
}

// RunFile loads source and runs every variation against it.
func (p *Processor) RunFile(ctx context.Context, source string, vars []Variation) (*Report, error) {
	r, err := lcimage.Load(source)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, r.Pixels(), source, vars)
}

// Run produces every variation of img. A failing variation is recorded and
// the run moves on; only cancellation stops it early.
func (p *Processor) Run(ctx context.Context, img image.Image, original string, vars []Variation) (*Report, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	report := &Report{Results: make([]Result, 0, len(vars))}
	for i, v := range vars {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := Result{Variation: v}
		out, err := p.apply(v, img)
		if err == nil {
			res.Path = filepath.Join(p.OutputDir, p.Namer.Name(original, v, i))
			err = export.Save(res.Path, out, p.Options)
		}
		res.Err = err
		if err != nil {
			res.Path = ""
			logger.Warn("variation failed", "variation", v.String(), "err", err)
		} else {
			logger.Info("variation saved", "variation", v.String(), "path", res.Path)
		}
		report.Results = append(report.Results, res)
		if p.Progress != nil {
			p.Progress(i+1, len(vars), res)
		}
	}
	return report, nil
}

func (p *Processor) apply(v Variation, img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if v.Type == Custom {
		fn, ok := p.Custom[v.Value]
		if !ok {
			return nil, fmt.Errorf("no handler for %q", v.Value)
		}
		out, err = fn(img)
	} else {
		out, err = v.Apply(img)
	}
	if err == nil && (out == nil || out.Bounds().Empty()) {
		err = errors.New("empty result")
	}
	return out, err
}
