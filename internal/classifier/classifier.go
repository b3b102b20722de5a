// Package classifier turns eye-state intervals into Morse symbol events.
package classifier

import (
	"sync/atomic"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// ClosedClass is the outcome of classifying a closed interval.
type ClosedClass int

// Closed-interval outcomes.
const (
	ClosedDot ClosedClass = iota
	ClosedDash
	ClosedAmbiguous
)

// GapClass is the outcome of classifying an open duration.
type GapClass int

// Open-duration outcomes.
const (
	GapNone GapClass = iota
	GapLetter
	GapWord
)

// ClassifyClosed maps a closure duration to a symbol. Durations in the dead
// zone between the two thresholds are ambiguous. A duration exactly at
// LongBlinkMin resolves to the dash.
func ClassifyClosed(d time.Duration, p model.ThresholdProfile) ClosedClass {
	switch {
	case d >= p.LongBlinkMin:
		return ClosedDash
	case d <= p.ShortBlinkMax:
		return ClosedDot
	default:
		return ClosedAmbiguous
	}
}

// ClassifyGap maps an open duration to a boundary. A duration exactly at
// WordGapMin resolves to the word gap.
func ClassifyGap(d time.Duration, p model.ThresholdProfile) GapClass {
	switch {
	case d >= p.WordGapMin:
		return GapWord
	case d >= p.LetterGapMin:
		return GapLetter
	default:
		return GapNone
	}
}

// Classifier applies the active ThresholdProfile to an interval stream.
// The profile is held behind an atomic pointer so a calibration reload can
// never interleave with an in-flight classification decision.
//
// Gap events for an open stretch are emitted progressively: the letter gap
// as soon as the open duration crosses LetterGapMin and the word gap when
// it crosses WordGapMin, each at most once per stretch. A trailing pause
// therefore flushes without waiting for the next closure. Time advances
// only via the timestamps on the input, never the wall clock.
type Classifier struct {
	profile atomic.Pointer[model.ThresholdProfile]

	letterEmitted bool
	wordEmitted   bool

	// OnSymbol receives one event per classified interval. Must be fast
	// and non-blocking.
	OnSymbol func(model.SymbolEvent)
	// OnAmbiguous receives closed intervals falling in the dead zone.
	OnAmbiguous func(model.Interval)
}

// New creates a Classifier with the given starting profile.
func New(p model.ThresholdProfile) *Classifier {
	c := &Classifier{}
	c.profile.Store(&p)
	return c
}

// SetProfile atomically replaces the active profile.
func (c *Classifier) SetProfile(p model.ThresholdProfile) {
	c.profile.Store(&p)
}

// Profile returns a snapshot of the active profile.
func (c *Classifier) Profile() model.ThresholdProfile {
	return *c.profile.Load()
}

// ClosedInterval classifies a completed closure as dot or dash. Ambiguous
// closures produce no symbol and do not disturb downstream state. Either
// way the current open-stretch tracking is reset.
func (c *Classifier) ClosedInterval(iv model.Interval) {
	p := c.profile.Load()
	c.letterEmitted = false
	c.wordEmitted = false

	switch ClassifyClosed(iv.Duration(), *p) {
	case ClosedDot:
		c.emit(model.SymbolEvent{Kind: model.KindDot, Duration: iv.Duration(), At: iv.End})
	case ClosedDash:
		c.emit(model.SymbolEvent{Kind: model.KindDash, Duration: iv.Duration(), At: iv.End})
	case ClosedAmbiguous:
		if c.OnAmbiguous != nil {
			c.OnAmbiguous(iv)
		}
	}
}

// OpenProgress reports the elapsed duration of the current open stretch,
// emitting boundary events as thresholds are crossed. Safe to call
// repeatedly with growing durations for the same stretch.
func (c *Classifier) OpenProgress(d time.Duration, at time.Duration) {
	p := c.profile.Load()
	switch ClassifyGap(d, *p) {
	case GapWord:
		if !c.wordEmitted {
			c.wordEmitted = true
			c.letterEmitted = true
			c.emit(model.SymbolEvent{Kind: model.KindWordGap, Duration: d, At: at})
		}
	case GapLetter:
		if !c.letterEmitted {
			c.letterEmitted = true
			c.emit(model.SymbolEvent{Kind: model.KindLetterGap, Duration: d, At: at})
		}
	}
}

// Reset clears the open-stretch tracking. The profile is kept.
func (c *Classifier) Reset() {
	c.letterEmitted = false
	c.wordEmitted = false
}

func (c *Classifier) emit(ev model.SymbolEvent) {
	if c.OnSymbol != nil {
		c.OnSymbol(ev)
	}
}
