// Package tesseract recognises words with Tesseract.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"sync"

	"layercanvas/internal/ocr"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// minHeight is the height small images are upscaled to before recognition.
const minHeight = 150

// Engine wraps a Tesseract client. A client handles one image at a time.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	binarize  bool
	whitelist string
}

// NewEngine creates an engine for the given languages ("eng" when none).
func NewEngine(langs ...string) (*Engine, error) {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language: %w", err)
	}
	return &Engine{client: client, binarize: true}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// SetBinarize turns contrast equalisation and thresholding on or off.
// Photos usually read better without it.
func (e *Engine) SetBinarize(on bool) {
	e.binarize = on
}

// SetWhitelist restricts recognition to the given characters. An empty
// string allows everything.
func (e *Engine) SetWhitelist(chars string) {
	e.whitelist = chars
}

// Recognize finds words in img. Boxes are in img's coordinates.
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("recognize: empty image")
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer src.Close()

	processed, scale := e.preprocess(src)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, fmt.Errorf("recognize: engine closed")
	}
	if err := e.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := e.client.SetWhitelist(e.whitelist); err != nil && e.whitelist != "" {
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	words := make([]ocr.Word, 0, len(boxes))
	for _, box := range boxes {
		words = append(words, ocr.Word{
			Text:       box.Word,
			Box:        unscale(box.Box, scale).Add(b.Min),
			Confidence: box.Confidence,
		})
	}
	return words, nil
}

// preprocess upscales small images and optionally binarises them with dark
// text on a light background. It returns the scale factor applied.
func (e *Engine) preprocess(src gocv.Mat) (gocv.Mat, float64) {
	scale := 1.0
	scaled := gocv.NewMat()
	if h := src.Rows(); h < minHeight {
		scale = float64(minHeight) / float64(h)
		gocv.Resize(src, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		src.CopyTo(&scaled)
	}
	if !e.binarize {
		return scaled, scale
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()
	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// light text on a dark background
	if float64(gocv.CountNonZero(binary)) < 0.5*float64(binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}
	return binary, scale
}

func unscale(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	f := func(v int) int { return int(float64(v)/scale + 0.5) }
	return image.Rect(f(r.Min.X), f(r.Min.Y), f(r.Max.X), f(r.Max.Y))
}
