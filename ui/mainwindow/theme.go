package mainwindow

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// canvasTheme is the default theme with a blue accent and wider scrollbars
// for panning large canvases.
type canvasTheme struct{}

var _ fyne.Theme = (*canvasTheme)(nil)

func (t *canvasTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x1E, G: 0x78, B: 0xFF, A: 0xFF}
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x1E, G: 0x78, B: 0xFF, A: 0x60}
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *canvasTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *canvasTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *canvasTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 14
	case theme.SizeNameScrollBarSmall:
		return 10
	default:
		return theme.DefaultTheme().Size(name)
	}
}
