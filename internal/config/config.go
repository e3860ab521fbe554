// Package config loads and saves the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"layercanvas/internal/export"
	"layercanvas/internal/render"
	"layercanvas/pkg/colorutil"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration lives unless told otherwise.
const DefaultPath = "~/.config/layercanvas/config.yaml"

// Config is the application configuration.
type Config struct {
	Canvas     Canvas     `yaml:"canvas"`
	History    History    `yaml:"history"`
	Generation Generation `yaml:"generation"`
	Batch      Batch      `yaml:"batch"`
	Watch      Watch      `yaml:"watch"`
	Log        Log        `yaml:"log"`

	path string
}

// Canvas settings.
type Canvas struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`
	Highlight  string `yaml:"highlight"`
}

// History settings.
type History struct {
	Limit int `yaml:"limit"` // 0 keeps every step
}

// Generation configures the image generation services.
type Generation struct {
	Service      string        `yaml:"service"` // "stablehorde" or "local"
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxRetries   int           `yaml:"max_retries"`
	OutputDir    string        `yaml:"output_dir"`
	HistoryDB    string        `yaml:"history_db"`
}

// Batch configures batch variations.
type Batch struct {
	OutputDir string `yaml:"output_dir"`
	Pattern   string `yaml:"pattern"`
	Format    string `yaml:"format"`
	Quality   int    `yaml:"quality"`
}

// Watch configures the auto-import folder. An empty Dir disables it.
type Watch struct {
	Dir    string        `yaml:"dir"`
	Settle time.Duration `yaml:"settle"`
}

// Log settings.
type Log struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas:  Canvas{Width: 1200, Height: 800, Background: "#ffffff", Highlight: "#ff0000"},
		History: History{Limit: 50},
		Generation: Generation{
			Service:      "stablehorde",
			Endpoint:     "https://stablehorde.net/api/v2",
			APIKey:       "0000000000",
			PollInterval: 3 * time.Second,
			MaxRetries:   5,
			OutputDir:    "~/Pictures/layercanvas",
			HistoryDB:    "~/.config/layercanvas/generations.db",
		},
		Batch: Batch{
			OutputDir: "~/Pictures/layercanvas/batch",
			Pattern:   "{original}_{variation}_{index}",
			Format:    "png",
			Quality:   95,
		},
		Watch: Watch{Settle: 500 * time.Millisecond},
		Log:   Log{Level: "info"},
	}
}

// Load reads the configuration at path, or DefaultPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}

	cfg := Default()
	cfg.path = expanded

	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(expanded), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// SetPath changes where Save writes.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if c.History.Limit < 0 {
		errs = append(errs, fmt.Errorf("history limit %d", c.History.Limit))
	}
	if c.Generation.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval %s", c.Generation.PollInterval))
	}
	for _, f := range []struct{ name, value string }{
		{"background", c.Canvas.Background},
		{"highlight", c.Canvas.Highlight},
	} {
		if err := colorutil.CheckHex(f.value); err != nil {
			errs = append(errs, fmt.Errorf("canvas %s: %w", f.name, err))
		}
	}
	if _, err := export.ParseFormat(c.Batch.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Expand resolves a leading ~ in a configured path.
func Expand(path string) string {
	if p, err := homedir.Expand(path); err == nil {
		return p
	}
	return path
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q", s)
	}
	return l, nil
}

// RenderOptions returns the canvas appearance.
func (c *Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Background = colorutil.ParseHex(c.Canvas.Background, opts.Background)
	opts.Highlight = colorutil.ParseHex(c.Canvas.Highlight, opts.Highlight)
	return opts
}

// Background returns the canvas background colour.
func (c *Config) Background() color.Color {
	return colorutil.ParseHex(c.Canvas.Background, colorutil.White)
}

// ExportOptions returns the encoding settings for saved files. Opaque
// formats are flattened onto the canvas background.
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	opts.Background = c.Background()
	if c.Batch.Quality > 0 {
		opts.Quality = c.Batch.Quality
	}
	return opts
}

// BatchFormat returns the batch output format.
func (c *Config) BatchFormat() export.Format {
	f, _ := export.ParseFormat(c.Batch.Format)
	return f
}
