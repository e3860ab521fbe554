// Package batch generates and saves variations of a source image.
package batch

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"layercanvas/internal/filters"

	"github.com/anthonynsimon/bild/transform"
)

// Type is the kind of a variation.
type Type int

const (
	Rotation   Type = iota // Number is degrees, counter-clockwise
	Scale                  // Number is a size factor
	Filter                 // Value names a filters.Kind
	Brightness             // Number is a PIL-style factor
	Contrast               // Number is a PIL-style factor
	Saturation             // Number is a PIL-style factor
	Effect                 // Value names a filters.Effect
	Style                  // Value names a filters.Style, Number is the intensity
	Custom                 // Value names a handler registered on the Processor
)

var typeNames = map[Type]string{
	Rotation:   "rotation",
	Scale:      "scale",
	Filter:     "filter",
	Brightness: "brightness",
	Contrast:   "contrast",
	Saturation: "saturation",
	Effect:     "effect",
	Style:      "style",
	Custom:     "custom",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Numeric reports whether the variation is driven by Number alone.
func (t Type) Numeric() bool {
	switch t {
	case Rotation, Scale, Brightness, Contrast, Saturation:
		return true
	}
	return false
}

// ParseType resolves a type name. "style_transfer" is accepted for Style.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "style_transfer" {
		return Style, nil
	}
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown variation type %q", name)
}

// Variation is one output to generate from the source.
type Variation struct {
	Type   Type
	Value  string
	Number float64
}

// Label is the variation's value as it appears in file names.
func (v Variation) Label() string {
	num := strconv.FormatFloat(v.Number, 'g', -1, 64)
	switch {
	case v.Type.Numeric():
		return num
	case v.Type == Style:
		return v.Value + "_" + num
	}
	return v.Value
}

func (v Variation) String() string {
	return v.Type.String() + "_" + v.Label()
}

// Apply produces the variation of img. It never modifies img.
func (v Variation) Apply(img image.Image) (image.Image, error) {
	switch v.Type {
	case Rotation:
		// bild turns clockwise
		return transform.Rotate(img, -v.Number, &transform.RotationOptions{ResizeBounds: true}), nil
	case Scale:
		b := img.Bounds()
		w, h := int(float64(b.Dx())*v.Number), int(float64(b.Dy())*v.Number)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g gives an empty image", v.Number)
		}
		return transform.Resize(img, w, h, transform.Lanczos), nil
	case Filter:
		k, err := filters.ParseKind(v.Value)
		if err != nil {
			return nil, err
		}
		return filters.Apply(k, img)
	case Brightness:
		return filters.Brightness(img, v.Number), nil
	case Contrast:
		return filters.ContrastFactor(img, v.Number), nil
	case Saturation:
		return filters.Saturation(img, v.Number), nil
	case Effect:
		e, err := filters.ParseEffect(v.Value)
		if err != nil {
			return nil, err
		}
		return filters.ApplyEffect(e, img)
	case Style:
		s, err := filters.ParseStyle(v.Value)
		if err != nil {
			return nil, err
		}
		return filters.ApplyStyle(s, img, v.Number)
	}
	return nil, fmt.Errorf("%s variations need a registered handler", v.Type)
}

// Numbers builds one numeric variation per value.
func Numbers(t Type, values ...float64) []Variation {
	out := make([]Variation, len(values))
	for i, n := range values {
		out[i] = Variation{Type: t, Number: n}
	}
	return out
}

// Named builds one variation per name.
func Named(t Type, names ...string) []Variation {
	out := make([]Variation, len(names))
	for i, n := range names {
		out[i] = Variation{Type: t, Value: n}
	}
	return out
}

// StyleAt builds a style variation at the given intensity.
func StyleAt(name string, intensity float64) Variation {
	return Variation{Type: Style, Value: name, Number: intensity}
}

// ParseNumbers parses a comma separated list such as "90, 180, 270".
func ParseNumbers(list string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}

// Parse builds variations of one type from a comma separated list. Styles
// take "name:intensity" items; a missing intensity means 1.
func Parse(t Type, list string) ([]Variation, error) {
	if t.Numeric() {
		nums, err := ParseNumbers(list)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		return Numbers(t, nums...), nil
	}
	var out []Variation
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v := Variation{Type: t, Value: item}
		if t == Style {
			v.Number = 1
			if name, level, ok := strings.Cut(item, ":"); ok {
				n, err := strconv.ParseFloat(strings.TrimSpace(level), 64)
				if err != nil {
					return nil, fmt.Errorf("style %q: bad intensity", item)
				}
				v.Value, v.Number = strings.TrimSpace(name), n
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Defaults is the stock set: quarter turns, four scales, the basic filters
// and two brightness and contrast steps.
func Defaults() []Variation {
	var out []Variation
	out = append(out, Numbers(Rotation, 90, 180, 270)...)
	out = append(out, Numbers(Scale, 0.5, 0.75, 1.25, 1.5)...)
	out = append(out, Named(Filter, "sepia", "grayscale", "invert", "blur", "sharpen", "emboss", "edge_enhance")...)
	out = append(out, Numbers(Brightness, 0.7, 1.3)...)
	out = append(out, Numbers(Contrast, 0.8, 1.2)...)
	return out
}

// ParseSpec reads one "type=list" group per line or per ";" separated part,
// e.g. "rotation=90,180; filter=sepia". Blank parts and lines starting with
// # are skipped.
func ParseSpec(spec string) ([]Variation, error) {
	var out []Variation
	parts := strings.FieldsFunc(spec, func(r rune) bool { return r == '\n' || r == ';' })
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "#") {
			continue
		}
		name, list, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("variation group %q: want type=values", part)
		}
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		vars, err := Parse(t, list)
		if err != nil {
			return nil, err
		}
		out = append(out, vars...)
	}
	return out, nil
}

// FormatSpec writes vars in the form ParseSpec reads, one line per type in
// order of first appearance.
func FormatSpec(vars []Variation) string {
	var order []Type
	items := make(map[Type][]string)
	for _, v := range vars {
		if _, seen := items[v.Type]; !seen {
			order = append(order, v.Type)
		}
		item := v.Label()
		if v.Type == Style {
			item = v.Value + ":" + strconv.FormatFloat(v.Number, 'g', -1, 64)
		}
		items[v.Type] = append(items[v.Type], item)
	}
	lines := make([]string, len(order))
	for i, t := range order {
		lines[i] = t.String() + "=" + strings.Join(items[t], ",")
	}
	return strings.Join(lines, "\n")
}
