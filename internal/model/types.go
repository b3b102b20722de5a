// Package model defines shared data structures.
package model

import "time"

// Sample is one binary eye-openness observation from the vision collaborator.
// At is an offset from the start of the sample stream, not wall-clock time.
type Sample struct {
	At     time.Duration
	Closed bool
}

// Interval is a coalesced run of identical-state samples.
// Intervals are contiguous, non-overlapping, and End > Start.
type Interval struct {
	Start  time.Duration
	End    time.Duration
	Closed bool
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End - iv.Start
}

// Symbol is a Morse primitive produced by an intentional eye closure.
type Symbol int

// Morse primitives.
const (
	Dot Symbol = iota
	Dash
)

// String renders the symbol in dictionary notation.
func (s Symbol) String() string {
	if s == Dash {
		return "-"
	}
	return "."
}

// SymbolKind tags a SymbolEvent.
type SymbolKind int

// SymbolEvent kinds.
const (
	KindDot SymbolKind = iota
	KindDash
	KindLetterGap
	KindWordGap
)

// String returns a short name for the kind.
func (k SymbolKind) String() string {
	switch k {
	case KindDot:
		return "dot"
	case KindDash:
		return "dash"
	case KindLetterGap:
		return "letter-gap"
	case KindWordGap:
		return "word-gap"
	}
	return "unknown"
}

// SymbolEvent is one classified interval: a Morse primitive or a gap boundary.
// Duration is the length of the triggering interval, At its end timestamp.
type SymbolEvent struct {
	Kind     SymbolKind
	Duration time.Duration
	At       time.Duration
}

// ThresholdProfile holds the personalized classification boundaries.
// A valid profile satisfies ShortBlinkMax < LongBlinkMin and
// LetterGapMin < WordGapMin.
type ThresholdProfile struct {
	ShortBlinkMax time.Duration
	LongBlinkMin  time.Duration
	LetterGapMin  time.Duration
	WordGapMin    time.Duration
}

// Valid reports whether the profile's boundary orderings hold.
func (p ThresholdProfile) Valid() bool {
	return p.ShortBlinkMax < p.LongBlinkMin && p.LetterGapMin < p.WordGapMin
}

// DefaultProfile matches the generous out-of-the-box thresholds used before
// the first calibration.
func DefaultProfile() ThresholdProfile {
	return ThresholdProfile{
		ShortBlinkMax: 300 * time.Millisecond,
		LongBlinkMin:  500 * time.Millisecond,
		LetterGapMin:  1500 * time.Millisecond,
		WordGapMin:    3 * time.Second,
	}
}

// EntryKind tags a DecodedText entry.
type EntryKind int

// Entry kinds.
const (
	EntryLetter EntryKind = iota
	EntryPhrase
	EntrySeparator
)

// Entry is one append-only element of the decoded output stream.
type Entry struct {
	Kind EntryKind
	Text string
	At   time.Duration
}

// SessionRecord captures a completed translation session for persistence.
type SessionRecord struct {
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMs int64
	Text       string
	Letters    int
	Words      int
	Phrases    int
	Ambiguous  int
	Unknown    int
	Dropped    int
	Profile    ThresholdProfile
}
