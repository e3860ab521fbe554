package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDropsBlankAndLowConfidence(t *testing.T) {
	words := []Word{
		{Text: "hello", Box: image.Rect(0, 0, 50, 20), Confidence: 91},
		{Text: "  ", Box: image.Rect(60, 0, 80, 20), Confidence: 99},
		{Text: "noise", Box: image.Rect(90, 0, 120, 20), Confidence: 12},
		{Text: "empty", Box: image.Rectangle{}, Confidence: 99},
	}
	got := Filter(words, 60)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)
}

func TestFilterKeepsMoreConfidentDuplicate(t *testing.T) {
	words := []Word{
		{Text: "he11o", Box: image.Rect(0, 0, 50, 20), Confidence: 70},
		{Text: "hello", Box: image.Rect(2, 1, 50, 20), Confidence: 95},
	}
	got := Filter(words, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)
}

func TestLinesJoinsWordsLeftToRight(t *testing.T) {
	words := []Word{
		{Text: "world", Box: image.Rect(60, 2, 110, 22), Confidence: 90},
		{Text: "second", Box: image.Rect(0, 40, 70, 60), Confidence: 80},
		{Text: "hello", Box: image.Rect(0, 0, 50, 20), Confidence: 85},
	}
	got := Lines(words)
	require.Len(t, got, 2)
	assert.Equal(t, "hello world", got[0].Text)
	assert.Equal(t, image.Rect(0, 0, 110, 22), got[0].Box)
	assert.Equal(t, 85.0, got[0].Confidence)
	assert.Equal(t, "second", got[1].Text)
}

func TestTextElementsOffsetsAndSizes(t *testing.T) {
	words := []Word{{Text: "label", Box: image.Rect(10, 5, 60, 25), Confidence: 90}}
	els := TextElements(nil, words, image.Pt(100, 200), Options{MinConfidence: 50})
	require.Len(t, els, 1)
	assert.Equal(t, "label", els[0].Text)
	assert.Equal(t, image.Pt(110, 205), els[0].Position)
	assert.InDelta(t, 18.0, els[0].Size, 0.001)
}

func TestInkColorFindsTextOnBackground(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	ink := color.RGBA{R: 200, A: 255}
	draw.Draw(img, image.Rect(10, 5, 30, 15), &image.Uniform{ink}, image.Point{}, draw.Src)

	assert.Equal(t, ink, InkColor(img, img.Bounds()))
}

func TestInkColorOutsideImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	c := InkColor(img, image.Rect(20, 20, 30, 30))
	r, g, b, _ := c.RGBA()
	assert.Zero(t, r+g+b)
}
