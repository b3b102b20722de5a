package synth

import (
	"strings"
	"testing"

	"github.com/verte-zerg/blinkmorse/internal/engine"
	"github.com/verte-zerg/blinkmorse/internal/model"
)

func TestSamplesDecodeBackToText(t *testing.T) {
	g := NewSeeded(model.DefaultProfile(), 0.1, 42)
	samples, err := g.Samples("sos ok")
	if err != nil {
		t.Fatalf("samples failed: %v", err)
	}

	eng := engine.New(engine.Options{Profile: model.DefaultProfile()})
	for _, s := range samples {
		eng.Push(s)
	}
	eng.Flush()

	if got := strings.TrimSpace(eng.Text()); got != "SOS OK" {
		t.Fatalf("decoded %q, want %q", got, "SOS OK")
	}
}

func TestSamplesDeterministicForSeed(t *testing.T) {
	a, err := NewSeeded(model.DefaultProfile(), 0.2, 7).Samples("HELLO")
	if err != nil {
		t.Fatalf("samples failed: %v", err)
	}
	b, err := NewSeeded(model.DefaultProfile(), 0.2, 7).Samples("HELLO")
	if err != nil {
		t.Fatalf("samples failed: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSamplesRejectsUnknownCharacter(t *testing.T) {
	g := NewSeeded(model.DefaultProfile(), 0, 1)
	if _, err := g.Samples("S#S"); err == nil {
		t.Fatalf("expected error for unmapped character")
	}
}

func TestSamplesRejectsEmptyText(t *testing.T) {
	g := NewSeeded(model.DefaultProfile(), 0, 1)
	if _, err := g.Samples("   "); err == nil {
		t.Fatalf("expected error for empty text")
	}
}

func TestSamplesAlternateStates(t *testing.T) {
	g := NewSeeded(model.DefaultProfile(), 0, 1)
	samples, err := g.Samples("E")
	if err != nil {
		t.Fatalf("samples failed: %v", err)
	}
	// One dot: closed, open, plus the trailing flush sample.
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if !samples[0].Closed || samples[1].Closed || samples[2].Closed {
		t.Fatalf("unexpected state pattern: %+v", samples)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].At <= samples[i-1].At {
			t.Fatalf("timestamps not strictly increasing: %+v", samples)
		}
	}
}
