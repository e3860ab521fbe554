// Package dialogs provides application dialogs.
package dialogs

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

var errRequired = errors.New("required")

// positiveInt validates an entry holding a whole number above zero.
func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("not a number")
	}
	if n <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("not a number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func atoi(e *widget.Entry) int {
	n, _ := strconv.Atoi(strings.TrimSpace(e.Text))
	return n
}

func intEntry(v int, validate fyne.StringValidator) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.Itoa(v))
	e.Validator = validate
	return e
}

// ShowText asks for the text to place at p.
func ShowText(win fyne.Window, p image.Point, submit func(text string)) {
	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder("Text")
	entry.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errRequired
		}
		return nil
	}
	d := dialog.NewForm(fmt.Sprintf("Add Text at (%d, %d)", p.X, p.Y), "Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok {
				submit(entry.Text)
			}
		}, win)
	d.Resize(fyne.NewSize(400, 220))
	d.Show()
	win.Canvas().Focus(entry)
}

// ShowResize asks for new dimensions, starting from current. With keep
// aspect checked, editing one side updates the other.
func ShowResize(win fyne.Window, title string, current image.Point, submit func(width, height int)) {
	width := intEntry(current.X, positiveInt)
	height := intEntry(current.Y, positiveInt)
	keep := widget.NewCheck("Keep aspect ratio", nil)
	keep.SetChecked(current.X > 0 && current.Y > 0)

	updating := false
	width.OnChanged = func(string) {
		if updating || !keep.Checked || current.X <= 0 {
			return
		}
		updating = true
		height.SetText(strconv.Itoa(max(1, atoi(width)*current.Y/current.X)))
		updating = false
	}
	height.OnChanged = func(string) {
		if updating || !keep.Checked || current.Y <= 0 {
			return
		}
		updating = true
		width.SetText(strconv.Itoa(max(1, atoi(height)*current.X/current.Y)))
		updating = false
	}

	items := []*widget.FormItem{
		widget.NewFormItem("Width", width),
		widget.NewFormItem("Height", height),
		widget.NewFormItem("", keep),
	}
	dialog.ShowForm(title, "Resize", "Cancel", items, func(ok bool) {
		if ok {
			submit(atoi(width), atoi(height))
		}
	}, win)
}

// ShowCrop asks for a crop rectangle in the image's pixel coordinates.
func ShowCrop(win fyne.Window, size image.Point, submit func(area image.Rectangle)) {
	x := intEntry(0, nonNegativeInt)
	y := intEntry(0, nonNegativeInt)
	w := intEntry(size.X, positiveInt)
	h := intEntry(size.Y, positiveInt)
	items := []*widget.FormItem{
		widget.NewFormItem("Left", x),
		widget.NewFormItem("Top", y),
		widget.NewFormItem("Width", w),
		widget.NewFormItem("Height", h),
	}
	d := dialog.NewForm(fmt.Sprintf("Crop (%dx%d)", size.X, size.Y), "Crop", "Cancel", items, func(ok bool) {
		if ok {
			submit(image.Rect(atoi(x), atoi(y), atoi(x)+atoi(w), atoi(y)+atoi(h)))
		}
	}, win)
	d.Show()
}

// ShowRotate asks for an angle in degrees, counter-clockwise.
func ShowRotate(win fyne.Window, submit func(deg float64)) {
	angle := widget.NewEntry()
	angle.SetPlaceHolder("degrees")
	angle.Validator = func(s string) error {
		_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return err
	}
	dialog.ShowForm("Rotate", "Rotate", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Angle", angle)},
		func(ok bool) {
			if !ok {
				return
			}
			deg, _ := strconv.ParseFloat(strings.TrimSpace(angle.Text), 64)
			submit(deg)
		}, win)
}

// ShowIntensity asks how strongly to apply a style, from 0 to 1.
func ShowIntensity(win fyne.Window, name string, start float64, submit func(intensity float64)) {
	slider := widget.NewSlider(0, 1)
	slider.Step = 0.05
	slider.Value = start
	value := widget.NewLabel(fmt.Sprintf("%.0f%%", start*100))
	slider.OnChanged = func(v float64) { value.SetText(fmt.Sprintf("%.0f%%", v*100)) }
	d := dialog.NewForm(name, "Apply", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Intensity", container.NewBorder(nil, nil, nil, value, slider))},
		func(ok bool) {
			if ok {
				submit(slider.Value)
			}
		}, win)
	d.Resize(fyne.NewSize(360, 160))
	d.Show()
}
