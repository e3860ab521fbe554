// Package aifx implements the "AI" effects menu with OpenCV filters: edge
// preserving stylisation, cartoon and pencil renderings, detail enhancement
// and feature keypoints.
package aifx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// ErrUnknownEffect is returned for names that do not match an effect.
var ErrUnknownEffect = errors.New("unknown AI effect")

// Effect is one OpenCV effect.
type Effect int

const (
	Stylize Effect = iota
	Cartoon
	Sketch
	Enhance
	Smooth
	Keypoints
)

var names = map[Effect]string{
	Stylize:   "stylize",
	Cartoon:   "cartoon",
	Sketch:    "sketch",
	Enhance:   "enhance",
	Smooth:    "smooth",
	Keypoints: "keypoints",
}

func (e Effect) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("Effect(%d)", int(e))
}

// Effects returns every effect in menu order.
func Effects() []Effect {
	return []Effect{Stylize, Cartoon, Sketch, Enhance, Smooth, Keypoints}
}

// Parse resolves an effect name, with or without the "ai_" prefix.
func Parse(name string) (Effect, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "ai_")
	for e, n := range names {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}

// Name is the handler name used for batch custom variations.
func (e Effect) Name() string {
	return "ai_" + e.String()
}

// Func returns e as an image transform.
func (e Effect) Func() func(image.Image) (image.Image, error) {
	return func(img image.Image) (image.Image, error) {
		return Apply(e, img)
	}
}

// Registrar accepts named transforms, such as a batch processor.
type Registrar interface {
	Register(name string, fn func(image.Image) (image.Image, error))
}

// RegisterAll adds every effect to r under its Name.
func RegisterAll(r Registrar) {
	for _, e := range Effects() {
		r.Register(e.Name(), e.Func())
	}
}

// Apply runs effect e over img and returns a new image.
func Apply(e Effect, img image.Image) (image.Image, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s: empty image", e)
	}
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("%s: convert image: %w", e, err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	switch e {
	case Stylize:
		gocv.Stylization(src, &dst, 60, 0.45)
	case Cartoon:
		cartoon(src, &dst)
	case Sketch:
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.PencilSketch(src, &gray, &dst, 60, 0.07, 0.02)
		gocv.CvtColor(gray, &dst, gocv.ColorGrayToBGR)
	case Enhance:
		gocv.DetailEnhance(src, &dst, 10, 0.15)
	case Smooth:
		gocv.EdgePreservingFilter(src, &dst, gocv.RecursFilter, 60, 0.4)
	case Keypoints:
		keypoints(src, &dst)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEffect, int(e))
	}

	if dst.Empty() {
		return nil, fmt.Errorf("%s: no output", e)
	}
	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%s: convert result: %w", e, err)
	}
	return out, nil
}

// cartoon flattens colours with a bilateral filter and outlines them with
// adaptive-threshold edges.
func cartoon(src gocv.Mat, dst *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, 7)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.AdaptiveThreshold(blurred, &edges, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, 9, 2)

	flat := gocv.NewMat()
	defer flat.Close()
	gocv.BilateralFilter(src, &flat, 9, 250, 250)

	gocv.BitwiseAndWithMask(flat, flat, dst, edges)
}

var keypointColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// keypoints draws ORB features over the image.
func keypoints(src gocv.Mat, dst *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	orb := gocv.NewORB()
	defer orb.Close()
	kps := orb.Detect(gray)

	gocv.DrawKeyPoints(src, kps, dst, keypointColor, gocv.DrawDefault)
}
