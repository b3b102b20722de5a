package stats

import (
	"bytes"
	"strings"
	"testing"
)

func chartRows(t *testing.T, out string) []string {
	t.Helper()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("chart too short:\n%s", out)
	}
	return lines
}

func hasBrailleDots(s string) bool {
	for _, r := range s {
		if r > 0x2800 && r <= 0x28ff {
			return true
		}
	}
	return false
}

func TestRenderCurveAxisCarriesUnits(t *testing.T) {
	var buf bytes.Buffer
	c := Curve{Label: "letters/min", Values: []float64{0, 5, 10}}
	if err := RenderCurve(&buf, c, 40, 4, false); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	lines := chartRows(t, buf.String())
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want label plus 4 chart rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "letters/min" {
		t.Fatalf("label line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "10.0 ┤") {
		t.Fatalf("top row = %q, want the series max on the axis", lines[1])
	}
	if !strings.HasPrefix(lines[3], " 5.0 ┤") {
		t.Fatalf("mid row = %q, want the series midpoint on the axis", lines[3])
	}
	if !strings.HasPrefix(lines[4], " 0.0 ┤") {
		t.Fatalf("bottom row = %q, want the series min on the axis", lines[4])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("color codes emitted without useColor")
	}
}

func TestRenderCurveRisingSeriesTouchesBothEdges(t *testing.T) {
	var buf bytes.Buffer
	c := Curve{Label: "letters/min", Values: []float64{0, 5, 10}}
	if err := RenderCurve(&buf, c, 40, 4, false); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	lines := chartRows(t, buf.String())
	if !hasBrailleDots(lines[1]) {
		t.Fatalf("top row %q has no dots for a series reaching its max", lines[1])
	}
	if !hasBrailleDots(lines[4]) {
		t.Fatalf("bottom row %q has no dots for a series starting at its min", lines[4])
	}
}

func TestRenderCurveFlatSeriesSitsOnBottomRow(t *testing.T) {
	var buf bytes.Buffer
	c := Curve{Label: "ambiguity %", Values: []float64{3, 3, 3}}
	if err := RenderCurve(&buf, c, 40, 4, false); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	lines := chartRows(t, buf.String())
	if !strings.HasPrefix(lines[1], "4.0 ┤") || !strings.HasPrefix(lines[4], "3.0 ┤") {
		t.Fatalf("flat series axis = %q / %q, want a widened range above 3.0", lines[1], lines[4])
	}
	if hasBrailleDots(lines[1]) {
		t.Fatalf("top row %q should be empty for a flat series", lines[1])
	}
	if !hasBrailleDots(lines[4]) {
		t.Fatalf("bottom row %q should carry the flat line", lines[4])
	}
}

func TestRenderCurveFitsTotalWidth(t *testing.T) {
	var buf bytes.Buffer
	c := Curve{Label: "letters/min", Values: []float64{1, 2, 3, 4}}
	if err := RenderCurve(&buf, c, 30, 4, false); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	lines := chartRows(t, buf.String())
	for _, line := range lines[1:] {
		if n := len([]rune(line)); n > 30 {
			t.Fatalf("row %q is %d columns wide, want at most 30", line, n)
		}
	}

	// A cramped terminal still gets a usable chart area.
	buf.Reset()
	if err := RenderCurve(&buf, c, 5, 4, false); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	lines = chartRows(t, buf.String())
	if !hasBrailleDots(lines[1] + lines[4]) {
		t.Fatalf("cramped chart lost the curve:\n%s", buf.String())
	}
}

func TestRenderCurveColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	c := Curve{Label: "letters/min", Values: []float64{1, 2}, Color: colorRate}
	if err := RenderCurve(&buf, c, 40, 4, true); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, colorRate) || !strings.Contains(out, colorReset) {
		t.Fatalf("expected colored rows, got:\n%s", out)
	}

	t.Setenv("NO_COLOR", "1")
	buf.Reset()
	if err := RenderCurve(&buf, c, 40, 4, true); err != nil {
		t.Fatalf("RenderCurve: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("NO_COLOR set but color codes emitted")
	}
}
