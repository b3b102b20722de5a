package morse

import (
	"strings"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// Phrases resolves quick-command sequences. Matches take priority over
// dictionary lookup so memorized urgent sequences pre-empt letter-by-letter
// decoding.
type Phrases interface {
	Lookup(seq string) (string, bool)
	HasPrefix(seq string) bool
	MaxLen() int
}

// State is the decoder state.
type State int

// Decoder states.
const (
	Idle State = iota
	Accumulating
)

// Decoder accumulates dot/dash events and flushes them into text on gap
// events. Output is append-only: every failure mode recovers locally and
// never rolls the decoded stream back.
type Decoder struct {
	dict      *Dictionary
	shortcuts Phrases

	buf    []model.Symbol
	maxSeq int
	state  State

	entries []model.Entry
	text    strings.Builder

	letters int
	words   int
	phrases int
	unknown int

	// OnEntry receives each element appended to the decoded stream.
	OnEntry func(model.Entry)
	// OnUnknown receives sequences that matched neither table. The buffer
	// is cleared and decoding continues.
	OnUnknown func(seq string, at time.Duration)
}

// NewDecoder creates a decoder over the given lookup structures.
// shortcuts may be nil to disable quick commands.
func NewDecoder(dict *Dictionary, shortcuts Phrases) *Decoder {
	maxSeq := dict.MaxLen()
	if shortcuts != nil && shortcuts.MaxLen() > maxSeq {
		maxSeq = shortcuts.MaxLen()
	}
	return &Decoder{
		dict:      dict,
		shortcuts: shortcuts,
		maxSeq:    maxSeq,
	}
}

// HandleSymbol consumes one classified event.
func (d *Decoder) HandleSymbol(ev model.SymbolEvent) {
	switch ev.Kind {
	case model.KindDot:
		d.append(model.Dot, ev.At)
	case model.KindDash:
		d.append(model.Dash, ev.At)
	case model.KindLetterGap:
		d.flushLetter(ev.At)
	case model.KindWordGap:
		d.flushLetter(ev.At)
		d.appendSeparator(ev.At, true)
	}
}

func (d *Decoder) append(sym model.Symbol, at time.Duration) {
	if len(d.buf) >= d.maxSeq {
		// Longer than any known entry: force-flush so the stream can
		// never block on unrecognized input.
		d.reportUnknown(Sequence(d.buf), at)
		d.buf = d.buf[:0]
	}
	d.buf = append(d.buf, sym)
	d.state = Accumulating
}

func (d *Decoder) flushLetter(at time.Duration) {
	d.state = Idle
	if len(d.buf) == 0 {
		return
	}
	seq := Sequence(d.buf)
	d.buf = d.buf[:0]

	if d.shortcuts != nil {
		if phrase, ok := d.shortcuts.Lookup(seq); ok {
			d.appendEntry(model.Entry{Kind: model.EntryPhrase, Text: phrase, At: at})
			d.phrases++
			d.appendSeparator(at, false)
			return
		}
	}
	if char, ok := d.dict.Lookup(seq); ok {
		d.appendEntry(model.Entry{Kind: model.EntryLetter, Text: char, At: at})
		d.letters++
		return
	}
	d.reportUnknown(seq, at)
}

func (d *Decoder) appendSeparator(at time.Duration, countWord bool) {
	if len(d.entries) == 0 {
		return
	}
	if d.entries[len(d.entries)-1].Kind == model.EntrySeparator {
		return
	}
	d.appendEntry(model.Entry{Kind: model.EntrySeparator, Text: " ", At: at})
	if countWord {
		d.words++
	}
}

func (d *Decoder) appendEntry(e model.Entry) {
	d.entries = append(d.entries, e)
	d.text.WriteString(e.Text)
	if d.OnEntry != nil {
		d.OnEntry(e)
	}
}

func (d *Decoder) reportUnknown(seq string, at time.Duration) {
	d.unknown++
	if d.OnUnknown != nil {
		d.OnUnknown(seq, at)
	}
}

// State returns the current decoder state.
func (d *Decoder) State() State {
	return d.state
}

// Buffer returns the pending sequence in dictionary notation.
func (d *Decoder) Buffer() string {
	return Sequence(d.buf)
}

// Preview returns what the pending buffer would decode to right now, and
// whether it is still a prefix of at least one quick command. The letter
// is "?" when the sequence is in neither table, empty when the buffer is.
func (d *Decoder) Preview() (letter string, shortcutPrefix bool) {
	if len(d.buf) == 0 {
		return "", false
	}
	seq := Sequence(d.buf)
	if d.shortcuts != nil {
		shortcutPrefix = d.shortcuts.HasPrefix(seq)
		if phrase, ok := d.shortcuts.Lookup(seq); ok {
			return phrase, shortcutPrefix
		}
	}
	if char, ok := d.dict.Lookup(seq); ok {
		return char, shortcutPrefix
	}
	return "?", shortcutPrefix
}

// Text returns the decoded output so far.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Entries returns a copy of the decoded stream.
func (d *Decoder) Entries() []model.Entry {
	out := make([]model.Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Letters returns the number of decoded characters.
func (d *Decoder) Letters() int { return d.letters }

// Words returns the number of word separators produced by word gaps.
func (d *Decoder) Words() int { return d.words }

// PhraseCount returns the number of quick-command matches.
func (d *Decoder) PhraseCount() int { return d.phrases }

// UnknownCount returns the number of unrecognized sequences.
func (d *Decoder) UnknownCount() int { return d.unknown }

// Flush concludes any pending letter, as a letter gap would. Used when a
// recorded stream ends mid-letter.
func (d *Decoder) Flush(at time.Duration) {
	d.flushLetter(at)
}

// Reset discards the pending buffer, the decoded stream, and all counters.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.state = Idle
	d.entries = nil
	d.text.Reset()
	d.letters = 0
	d.words = 0
	d.phrases = 0
	d.unknown = 0
}
