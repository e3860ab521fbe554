// Package prefs remembers small bits of UI state between runs, such as the
// last folder used and the window size.
package prefs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the UI state lives unless told otherwise.
const DefaultPath = "~/.config/layercanvas/ui.yaml"

// Keys used by the main window.
const (
	KeyLastDir     = "last_dir"
	KeyFitToWindow = "fit_to_window"
	KeyZoom        = "zoom"
	KeyWidth       = "window_width"
	KeyHeight      = "window_height"
)

// Prefs is a flat YAML document of UI values. It is safe for concurrent use.
type Prefs struct {
	path string

	mu   sync.RWMutex
	vals map[string]any
}

// Load reads preferences from path, or DefaultPath when path is empty. A
// missing or unreadable file yields empty preferences.
func Load(path string) *Prefs {
	if path == "" {
		path = DefaultPath
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	p := &Prefs{path: path}
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &p.vals)
	}
	if p.vals == nil {
		p.vals = make(map[string]any)
	}
	return p
}

// Path returns the file Save writes to.
func (p *Prefs) Path() string {
	return p.path
}

// Save writes the preferences, creating the directory if needed.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := yaml.Marshal(p.vals)
	p.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

func lookup[T any](p *Prefs, key string) (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.vals[key].(T)
	return v, ok
}

// Float returns a number, or fallback when key is unset. YAML gives whole
// numbers back as ints, so those are accepted too.
func (p *Prefs) Float(key string, fallback float64) float64 {
	if f, ok := lookup[float64](p, key); ok {
		return f
	}
	if n, ok := lookup[int](p, key); ok {
		return float64(n)
	}
	return fallback
}

// String returns a string, or "" when key is unset.
func (p *Prefs) String(key string) string {
	s, _ := lookup[string](p, key)
	return s
}

// Bool returns a flag, or fallback when key is unset.
func (p *Prefs) Bool(key string, fallback bool) bool {
	if b, ok := lookup[bool](p, key); ok {
		return b
	}
	return fallback
}

func (p *Prefs) SetFloat(key string, v float64) { p.set(key, v) }
func (p *Prefs) SetString(key, v string)        { p.set(key, v) }
func (p *Prefs) SetBool(key string, v bool)     { p.set(key, v) }

func (p *Prefs) set(key string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vals[key] = v
}
