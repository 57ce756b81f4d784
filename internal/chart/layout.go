// Package chart lays out and renders the per-category bar chart.
package chart

import (
	"image"
	"math"

	"spesetracker/internal/core"
)

const (
	Title  = "Expense Distribution by Category"
	XLabel = "Category"
	YLabel = "Total Amount"
)

const (
	marginLeft   = 72
	marginRight  = 24
	marginTop    = 40
	marginBottom = 56
	tickCount    = 5
	// fraction of a slot taken by its bar
	barFill = 0.6
	// largest magnitude plotted; niceCeil of anything above stays finite
	maxPlotValue = 1e300
)

// Bar is one category column in pixel coordinates, origin top-left.
type Bar struct {
	Category string
	Total    float64
	Label    string
	Rect     image.Rectangle
}

// Tick is a y-axis gridline.
type Tick struct {
	Value float64
	Label string
	Y     int
}

// Layout is the pixel geometry of a chart. It is recomputed from the totals
// every time the view reloads.
type Layout struct {
	Width, Height int
	Plot          image.Rectangle
	BaselineY     int
	Bars          []Bar
	Ticks         []Tick
}

// Compute places one bar per total inside a width x height canvas. The value
// axis always includes zero; negative totals hang below the baseline. NaN
// totals plot as zero and magnitudes beyond maxPlotValue are clamped.
func Compute(totals []core.CategoryTotal, width, height int) Layout {
	l := Layout{
		Width:  width,
		Height: height,
		Plot:   image.Rect(0, 0, width, height),
	}
	if width-marginRight > marginLeft && height-marginBottom > marginTop {
		l.Plot = image.Rect(marginLeft, marginTop, width-marginRight, height-marginBottom)
	}

	values := make([]float64, len(totals))
	lo, hi := 0.0, 0.0
	for i, t := range totals {
		values[i] = plotValue(t.Total)
		lo = math.Min(lo, values[i])
		hi = math.Max(hi, values[i])
	}
	if hi == lo {
		hi = lo + 1
	}
	hi = niceCeil(hi)
	if lo < 0 {
		lo = -niceCeil(-lo)
	}

	scale := float64(l.Plot.Dy()) / (hi - lo)
	yOf := func(v float64) int {
		return l.Plot.Max.Y - int(math.Round((v-lo)*scale))
	}
	l.BaselineY = yOf(0)

	for i := 0; i <= tickCount; i++ {
		v := lo + (hi-lo)*float64(i)/tickCount
		l.Ticks = append(l.Ticks, Tick{Value: v, Label: core.FormatTotal(v), Y: yOf(v)})
	}

	if len(totals) == 0 {
		return l
	}
	slot := float64(l.Plot.Dx()) / float64(len(totals))
	barW := int(math.Max(1, math.Round(slot*barFill)))
	for i, t := range totals {
		x0 := l.Plot.Min.X + int(math.Round(slot*float64(i)+(slot-float64(barW))/2))
		v := values[i]
		y := yOf(v)
		top, bottom := y, l.BaselineY
		if v < 0 {
			top, bottom = l.BaselineY, y
		}
		l.Bars = append(l.Bars, Bar{
			Category: t.Category,
			Total:    v,
			Label:    core.FormatTotal(v),
			Rect:     image.Rect(x0, top, x0+barW, bottom),
		})
	}
	return l
}

func plotValue(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-maxPlotValue, math.Min(maxPlotValue, v))
}

// niceCeil rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 0
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}
