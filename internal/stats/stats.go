// Package stats contains session statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Metrics holds derived per-session rates.
type Metrics struct {
	LettersPerMinute float64
	WordsPerMinute   float64
	AmbiguityRate    float64
	UnknownRate      float64
}

// SessionMetrics computes decoding rates for a session.
func SessionMetrics(rec model.SessionRecord) Metrics {
	var m Metrics
	if rec.DurationMs <= 0 {
		return m
	}
	minutes := float64(rec.DurationMs) / 60000.0
	m.LettersPerMinute = float64(rec.Letters) / minutes
	m.WordsPerMinute = float64(rec.Words) / minutes
	den := float64(rec.Letters + rec.Ambiguous + rec.Unknown)
	if den > 0 {
		m.AmbiguityRate = float64(rec.Ambiguous) / den
		m.UnknownRate = float64(rec.Unknown) / den
	}
	return m
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalLPM, totalAmb float64
	bestLPM := 0.0
	var totalLetters, totalWords int
	for _, s := range sessions {
		m := SessionMetrics(s)
		totalLPM += m.LettersPerMinute
		totalAmb += m.AmbiguityRate
		if m.LettersPerMinute > bestLPM {
			bestLPM = m.LettersPerMinute
		}
		totalLetters += s.Letters
		totalWords += s.Words
	}
	count := float64(len(sessions))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Letters: %d  Words: %d\n", totalLetters, totalWords); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg LPM: %.2f\n", totalLPM/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best LPM: %.2f\n", bestLPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Ambiguity: %.2f%%\n", (totalAmb/count)*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderHistoryTable prints one row per session.
func RenderHistoryTable(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		m := SessionMetrics(s)
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			(time.Duration(s.DurationMs) * time.Millisecond).Round(time.Second).String(),
			fmt.Sprintf("%.1f", m.LettersPerMinute),
			fmt.Sprintf("%d", s.Letters),
			fmt.Sprintf("%d", s.Words),
			fmt.Sprintf("%d", s.Ambiguous),
			fmt.Sprintf("%d", s.Unknown),
			truncateText(s.Text, 32),
		})
	}
	for _, line := range layoutRows(historyColumns, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

// RenderCurvesWithSize prints one smoothed panel per metric, sized to a
// given total terminal width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionRecord, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	lpms := make([]float64, len(sessions))
	ambs := make([]float64, len(sessions))
	for i, s := range sessions {
		m := SessionMetrics(s)
		lpms[i] = m.LettersPerMinute
		ambs[i] = m.AmbiguityRate * 100
	}
	lpms = MovingAverage(lpms, window)
	ambs = MovingAverage(ambs, window)

	if _, err := fmt.Fprintln(w, "Progress"); err != nil {
		return err
	}
	curves := []Curve{
		{Label: "letters/min", Values: lpms, Color: colorRate},
		{Label: "ambiguity %", Values: ambs, Color: colorAmbiguity},
	}
	for _, c := range curves {
		if err := RenderCurve(w, c, totalWidth, height, useColor); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
	}
	return nil
}
