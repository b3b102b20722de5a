package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	rec := model.SessionRecord{
		DurationMs: 2 * time.Minute.Milliseconds(),
		Letters:    20,
		Words:      4,
		Ambiguous:  2,
		Unknown:    3,
	}
	m := SessionMetrics(rec)
	if math.Abs(m.LettersPerMinute-10) > 1e-9 {
		t.Fatalf("expected 10 LPM, got %f", m.LettersPerMinute)
	}
	if math.Abs(m.WordsPerMinute-2) > 1e-9 {
		t.Fatalf("expected 2 WPM, got %f", m.WordsPerMinute)
	}
	if math.Abs(m.AmbiguityRate-2.0/25.0) > 1e-9 {
		t.Fatalf("unexpected ambiguity rate %f", m.AmbiguityRate)
	}
	if math.Abs(m.UnknownRate-3.0/25.0) > 1e-9 {
		t.Fatalf("unexpected unknown rate %f", m.UnknownRate)
	}
}

func TestSessionMetricsZeroDuration(t *testing.T) {
	m := SessionMetrics(model.SessionRecord{Letters: 5})
	if m != (Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v", m)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	s := Sparkline([]float64{2, 2, 2})
	if len(s) != 3 {
		t.Fatalf("expected 3 characters, got %q", s)
	}
	if s[0] != s[1] || s[1] != s[2] {
		t.Fatalf("expected uniform sparkline, got %q", s)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}

func TestRenderHistoryTableTruncatesText(t *testing.T) {
	rec := model.SessionRecord{
		EndedAt:    time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		DurationMs: 60000,
		Text:       strings.Repeat("A", 50),
		Letters:    50,
		Words:      1,
	}
	var buf bytes.Buffer
	if err := RenderHistoryTable(&buf, []model.SessionRecord{rec}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(buf.String(), strings.Repeat("A", 50)) {
		t.Fatalf("expected text to be truncated")
	}
	if !strings.Contains(buf.String(), "…") {
		t.Fatalf("expected ellipsis in truncated text")
	}
}
