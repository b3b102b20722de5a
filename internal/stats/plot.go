// Package stats contains session statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Curve is one decoding metric plotted over session history. Rate and
// ambiguity share no scale, so each curve is rendered in its own panel
// with the metric's unit on the axis labels.
type Curve struct {
	Label  string
	Values []float64
	Color  string
}

const (
	minChartWidth    = 10
	fallbackWidth    = 80
	colorReset       = "\x1b[0m"
	colorRate        = "\x1b[36m"
	colorAmbiguity   = "\x1b[35m"
	defaultChartRows = 10
)

// Braille cells pack a 2x4 dot grid; dotMasks is indexed [dot row][dot col].
var dotMasks = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// RenderCurve draws one metric panel fitting totalWidth terminal columns.
// The chart area shrinks to leave room for the axis labels and never drops
// below minChartWidth, so a cramped terminal degrades to wrapping rather
// than an empty chart.
func RenderCurve(w io.Writer, c Curve, totalWidth, height int, useColor bool) error {
	if len(c.Values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultChartRows
	}
	if height < 2 {
		height = 2
	}
	if totalWidth <= 0 {
		totalWidth = fallbackWidth
	}

	lo, hi := valueBounds(c.Values)
	labels := axisLabels(lo, hi, height)
	labelWidth := 0
	for _, l := range labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
	}
	width := totalWidth - labelWidth - 2
	if width < minChartWidth {
		width = minChartWidth
	}

	grid := plotCurve(c.Values, lo, hi, width, height)

	color := ""
	if useColor && colorAllowed() && c.Color != "" {
		color = c.Color
	}
	if _, err := fmt.Fprintln(w, c.Label); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		var b strings.Builder
		tick := "│"
		if labels[y] != "" {
			tick = "┤"
		}
		fmt.Fprintf(&b, "%*s %s", labelWidth, labels[y], tick)
		if color != "" {
			b.WriteString(color)
		}
		for x := 0; x < width; x++ {
			b.WriteRune(rune(0x2800 + int(grid[y*width+x])))
		}
		if color != "" {
			b.WriteString(colorReset)
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// plotCurve samples the series once per braille dot column and joins
// adjacent columns with a vertical run, so steep moves stay connected
// without a line-drawing pass.
func plotCurve(values []float64, lo, hi float64, width, height int) []uint8 {
	grid := make([]uint8, width*height)
	set := func(x, y int) {
		grid[(y/4)*width+x/2] |= dotMasks[y%4][x%2]
	}
	dotsW := width * 2
	dotsH := height * 4
	prev := 0
	for x := 0; x < dotsW; x++ {
		v := sampleAt(values, float64(x)/float64(dotsW-1))
		y := dotRow(v, lo, hi, dotsH)
		if x == 0 {
			set(x, y)
		} else {
			fillSpan(set, x, prev, y)
		}
		prev = y
	}
	return grid
}

func fillSpan(set func(x, y int), x, from, to int) {
	step := 1
	if to < from {
		step = -1
	}
	for y := from; ; y += step {
		set(x, y)
		if y == to {
			return
		}
	}
}

// sampleAt linearly interpolates the series at pos in [0, 1].
func sampleAt(values []float64, pos float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	f := pos * float64(len(values)-1)
	i := int(f)
	if i >= len(values)-1 {
		return values[len(values)-1]
	}
	frac := f - float64(i)
	return values[i]*(1-frac) + values[i+1]*frac
}

func dotRow(v, lo, hi float64, dotsH int) int {
	pos := (v - lo) / (hi - lo)
	y := int(math.Round((1 - pos) * float64(dotsH-1)))
	if y < 0 {
		y = 0
	}
	if y > dotsH-1 {
		y = dotsH - 1
	}
	return y
}

// valueBounds widens a flat series upward so the line sits on the bottom
// row and the axis still reports the real values.
func valueBounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 1e-9 {
		hi = lo + 1
	}
	return lo, hi
}

func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	labels[0] = formatAxis(hi)
	labels[height-1] = formatAxis(lo)
	if height > 2 {
		labels[height/2] = formatAxis(lo + (hi-lo)/2)
	}
	return labels
}

func formatAxis(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func colorAllowed() bool {
	return os.Getenv("NO_COLOR") == ""
}
