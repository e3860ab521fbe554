package generate

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"
)

// Result is what a finished job produced.
type Result struct {
	Images []image.Image
	Paths  []string
}

// Job runs a generator, saves its images and records them in the history.
type Job struct {
	Generator Generator
	OutputDir string
	Store     *Store // optional
	Logger    *slog.Logger
	Now       func() time.Time
}

// Run generates req. Images that could not be saved are still returned with
// an empty path; the error then reports the save failures.
func (j *Job) Run(ctx context.Context, req Request) (Result, error) {
	logger := j.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	imgs, err := j.Generator.Generate(ctx, req)
	if err != nil {
		return Result{}, err
	}
	res := Result{Images: imgs, Paths: make([]string, len(imgs))}

	var errs []error
	t := now()
	for i, img := range imgs {
		path, err := save(j.OutputDir, img, t, i+1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Paths[i] = path
		if j.Store == nil {
			continue
		}
		b := img.Bounds()
		_, err = j.Store.Add(ctx, Entry{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Service:        j.Generator.Name(),
			Path:           path,
			Width:          b.Dx(),
			Height:         b.Dy(),
			CreatedAt:      t,
		})
		if err != nil {
			logger.Warn("record generation", "path", path, "err", err)
		}
	}
	logger.Info("generation saved", "service", j.Generator.Name(), "images", len(imgs), "dir", j.OutputDir)
	return res, errors.Join(errs...)
}
