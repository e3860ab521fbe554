// Package generate produces images from text prompts, either through the
// Stable Horde service or locally, and keeps a history of what was made.
package generate

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

	"layercanvas/internal/config"
	"layercanvas/internal/export"
)

var (
	// ErrRateLimited is returned when the service keeps answering 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoImages is returned when a finished job carries no images.
	ErrNoImages = errors.New("no images generated")

	// ErrEmptyPrompt is returned for blank prompts.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrUnknownService is returned for service names New does not know.
	ErrUnknownService = errors.New("unknown generation service")
)

// Service names accepted by New.
const (
	ServiceStableHorde = "stablehorde"
	ServiceLocal       = "local"
)

// Size is an output resolution offered by the services.
type Size struct {
	Width, Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Sizes lists the resolutions offered in the generation dialog.
var Sizes = []Size{{256, 256}, {512, 512}, {1024, 1024}, {1024, 1792}, {1792, 1024}}

// ParseSize reads "WxH".
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	width, err1 := strconv.Atoi(w)
	height, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return Size{}, fmt.Errorf("size %q: invalid dimensions", s)
	}
	return Size{width, height}, nil
}

// Request describes one generation job.
type Request struct {
	Prompt         string
	NegativePrompt string
	Size           Size
	Steps          int
	CFGScale       float64
	Sampler        string
	Count          int
	Seed           int // -1 picks a random seed
}

// NewRequest returns a request with the service defaults.
func NewRequest(prompt string) Request {
	return Request{
		Prompt:   prompt,
		Size:     Size{1024, 1024},
		Steps:    20,
		CFGScale: 7,
		Sampler:  "k_euler_a",
		Count:    1,
		Seed:     -1,
	}
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.Size.Width <= 0 || r.Size.Height <= 0 {
		return fmt.Errorf("invalid size %s", r.Size)
	}
	return nil
}

// Generator turns a request into images.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) ([]image.Image, error)
}

// New builds the generator named by cfg.Service.
func New(cfg config.Generation, logger *slog.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Service) {
	case ServiceStableHorde, "":
		return NewHorde(cfg.Endpoint, cfg.APIKey,
			WithPollInterval(cfg.PollInterval),
			WithMaxRetries(cfg.MaxRetries),
			WithLogger(logger),
		), nil
	case ServiceLocal:
		return NewLocal(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownService, cfg.Service)
}

// FileName returns the name the i-th image (from 1) of a job finished at t
// is saved under.
func FileName(t time.Time, i int) string {
	return fmt.Sprintf("ai_generated_%s_%d.png", t.Format("20060102_150405"), i)
}

func save(dir string, img image.Image, t time.Time, n int) (string, error) {
	path := filepath.Join(dir, FileName(t, n))
	if err := export.Save(path, img, export.DefaultOptions()); err != nil {
		return "", err
	}
	return path, nil
}
