package chart

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"spesetracker/internal/core"
)

var (
	background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	barColor   = color.NRGBA{R: 70, G: 130, B: 180, A: 255}
	axisColor  = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	gridColor  = color.NRGBA{R: 225, G: 225, B: 225, A: 255}
	textColor  = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
)

var face = basicfont.Face7x13

// Image draws the chart for totals onto a fresh canvas.
func Image(totals []core.CategoryTotal, width, height int) *image.NRGBA {
	l := Compute(totals, width, height)
	img := imaging.New(width, height, background)

	for _, t := range l.Ticks {
		img = fill(img, image.Rect(l.Plot.Min.X, t.Y, l.Plot.Max.X, t.Y+1), gridColor)
		drawText(img, t.Label, l.Plot.Min.X-6-textWidth(t.Label), t.Y+4)
	}

	for _, b := range l.Bars {
		img = fill(img, b.Rect, barColor)
		cx := (b.Rect.Min.X + b.Rect.Max.X) / 2
		drawText(img, b.Label, cx-textWidth(b.Label)/2, b.Rect.Min.Y-4)
		drawText(img, b.Category, cx-textWidth(b.Category)/2, l.Plot.Max.Y+16)
	}

	// axes
	img = fill(img, image.Rect(l.Plot.Min.X, l.Plot.Min.Y, l.Plot.Min.X+1, l.Plot.Max.Y), axisColor)
	img = fill(img, image.Rect(l.Plot.Min.X, l.BaselineY, l.Plot.Max.X, l.BaselineY+1), axisColor)

	drawText(img, Title, (width-textWidth(Title))/2, marginTop/2+4)
	drawText(img, XLabel, l.Plot.Min.X+(l.Plot.Dx()-textWidth(XLabel))/2, height-12)

	ylabel := textImage(YLabel)
	ylabel = imaging.Rotate90(ylabel)
	img = imaging.Overlay(img, ylabel, image.Pt(6, l.Plot.Min.Y+(l.Plot.Dy()-ylabel.Bounds().Dy())/2), 1)

	return img
}

// RenderPNG writes the chart as PNG.
func RenderPNG(w io.Writer, totals []core.CategoryTotal, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("chart size %dx%d: must be positive", width, height)
	}
	if err := imaging.Encode(w, Image(totals, width, height), imaging.PNG); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	return nil
}

func fill(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) *image.NRGBA {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return dst
	}
	return imaging.Paste(dst, imaging.New(r.Dx(), r.Dy(), c), r.Min)
}

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

func drawText(dst *image.NRGBA, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textImage(s string) *image.NRGBA {
	img := imaging.New(textWidth(s), face.Height, color.NRGBA{})
	drawText(img, s, 0, face.Ascent)
	return img
}
