// Package engine wires the normalizer, classifier, and decoder into one
// deterministic translation pipeline.
package engine

import (
	"sync"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/classifier"
	"github.com/verte-zerg/blinkmorse/internal/model"
	"github.com/verte-zerg/blinkmorse/internal/morse"
	"github.com/verte-zerg/blinkmorse/internal/signal"
)

// Options configures an Engine.
type Options struct {
	// Debounce is the flicker threshold; zero selects the default.
	Debounce time.Duration
	// Profile is the starting ThresholdProfile.
	Profile model.ThresholdProfile
	// Dictionary defaults to the built-in ITU table when nil.
	Dictionary *morse.Dictionary
	// Shortcuts may be nil to disable quick commands.
	Shortcuts morse.Phrases
}

// Counters summarizes pipeline activity since the last reset.
type Counters struct {
	Dots      int
	Dashes    int
	Letters   int
	Words     int
	Phrases   int
	Ambiguous int
	Unknown   int
	Dropped   int
}

// Engine is the single entry point the surrounding application feeds
// samples into. All mutating operations are serialized behind one mutex,
// so a buffer flush can never interleave with a concurrently-arriving
// symbol. The engine performs no I/O and owns no timers: time advances
// only through sample timestamps, which makes any recorded stream replay
// to identical output.
type Engine struct {
	mu   sync.Mutex
	norm *signal.Normalizer
	cls  *classifier.Classifier
	dec  *morse.Decoder

	dots      int
	dashes    int
	ambiguous int

	// Event callbacks. All are invoked with the engine lock held and
	// must be fast and non-blocking.
	OnSymbol    func(model.SymbolEvent)
	OnEntry     func(model.Entry)
	OnAmbiguous func(model.Interval)
	OnUnknown   func(seq string, at time.Duration)
	OnDrop      func(model.Sample)
}

// New builds the pipeline.
func New(opts Options) *Engine {
	dict := opts.Dictionary
	if dict == nil {
		dict = morse.DefaultDictionary()
	}
	profile := opts.Profile
	if !profile.Valid() {
		profile = model.DefaultProfile()
	}

	e := &Engine{
		norm: signal.New(opts.Debounce),
		cls:  classifier.New(profile),
		dec:  morse.NewDecoder(dict, opts.Shortcuts),
	}

	e.norm.OnDrop = func(s model.Sample) {
		if e.OnDrop != nil {
			e.OnDrop(s)
		}
	}
	e.cls.OnSymbol = func(ev model.SymbolEvent) {
		switch ev.Kind {
		case model.KindDot:
			e.dots++
		case model.KindDash:
			e.dashes++
		}
		e.dec.HandleSymbol(ev)
		if e.OnSymbol != nil {
			e.OnSymbol(ev)
		}
	}
	e.cls.OnAmbiguous = func(iv model.Interval) {
		e.ambiguous++
		if e.OnAmbiguous != nil {
			e.OnAmbiguous(iv)
		}
	}
	e.dec.OnEntry = func(entry model.Entry) {
		if e.OnEntry != nil {
			e.OnEntry(entry)
		}
	}
	e.dec.OnUnknown = func(seq string, at time.Duration) {
		if e.OnUnknown != nil {
			e.OnUnknown(seq, at)
		}
	}
	return e
}

// Push consumes one eye-openness sample.
func (e *Engine) Push(s model.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, iv := range e.norm.Push(s) {
		e.process(iv)
	}
	// Report progress on the in-flight open stretch so trailing pauses
	// flush letters and words without waiting for the next closure.
	if pending, ok := e.norm.Pending(); ok && !pending.Closed {
		e.cls.OpenProgress(pending.Duration(), pending.End)
	}
}

func (e *Engine) process(iv model.Interval) {
	if iv.Closed {
		e.cls.ClosedInterval(iv)
		return
	}
	e.cls.OpenProgress(iv.Duration(), iv.End)
}

// Flush drains the normalizer and concludes any pending letter. Meant for
// the end of a recorded stream.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	// The latest accepted sample, not the end of the last released
	// interval: the normalizer may hold back or discard a trailing run.
	last := e.norm.LastAt()
	for _, iv := range e.norm.Flush() {
		e.process(iv)
	}
	e.dec.Flush(last)
}

// SetProfile atomically replaces the classification thresholds. The swap
// can never be observed half-applied by an in-flight classification.
func (e *Engine) SetProfile(p model.ThresholdProfile) {
	e.cls.SetProfile(p)
}

// Profile returns the active thresholds.
func (e *Engine) Profile() model.ThresholdProfile {
	return e.cls.Profile()
}

// Text returns the decoded output so far.
func (e *Engine) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dec.Text()
}

// Entries returns a copy of the decoded stream.
func (e *Engine) Entries() []model.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dec.Entries()
}

// Buffer returns the pending dot/dash sequence.
func (e *Engine) Buffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dec.Buffer()
}

// Preview returns the pending buffer's current decode and whether it is
// still a possible quick command.
func (e *Engine) Preview() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dec.Preview()
}

// Counters returns a snapshot of the activity counters.
func (e *Engine) Counters() Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Counters{
		Dots:      e.dots,
		Dashes:    e.dashes,
		Letters:   e.dec.Letters(),
		Words:     e.dec.Words(),
		Phrases:   e.dec.PhraseCount(),
		Ambiguous: e.ambiguous,
		Unknown:   e.dec.UnknownCount(),
		Dropped:   e.norm.Dropped(),
	}
}

// Record assembles a persistable session summary.
func (e *Engine) Record(startedAt, endedAt time.Time) model.SessionRecord {
	c := e.Counters()
	return model.SessionRecord{
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		DurationMs: endedAt.Sub(startedAt).Milliseconds(),
		Text:       e.Text(),
		Letters:    c.Letters,
		Words:      c.Words,
		Phrases:    c.Phrases,
		Ambiguous:  c.Ambiguous,
		Unknown:    c.Unknown,
		Dropped:    c.Dropped,
		Profile:    e.Profile(),
	}
}

// Reset returns the pipeline to its initial state, keeping the profile.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.norm.Reset()
	e.cls.Reset()
	e.dec.Reset()
	e.dots = 0
	e.dashes = 0
	e.ambiguous = 0
}
