package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFile(t *testing.T) {
	p := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Equal(t, "", p.String(KeyLastDir))
	assert.Equal(t, 1.5, p.Float(KeyZoom, 1.5))
	assert.True(t, p.Bool(KeyFitToWindow, true))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ui.yaml")
	p := Load(path)
	p.SetString(KeyLastDir, "/tmp/pictures")
	p.SetFloat(KeyZoom, 0.75)
	p.SetFloat(KeyWidth, 1400)
	p.SetBool(KeyFitToWindow, false)
	require.NoError(t, p.Save())

	q := Load(path)
	assert.Equal(t, "/tmp/pictures", q.String(KeyLastDir))
	assert.Equal(t, 0.75, q.Float(KeyZoom, 1))
	// whole numbers come back from YAML as ints
	assert.Equal(t, 1400.0, q.Float(KeyWidth, 0))
	assert.False(t, q.Bool(KeyFitToWindow, true))
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml"), 0o644))
	p := Load(path)
	assert.Equal(t, 2.0, p.Float(KeyZoom, 2))
	p.SetBool(KeyFitToWindow, true)
	assert.True(t, p.Bool(KeyFitToWindow, false))
}
