// Package signal turns raw eye-openness samples into clean state intervals.
package signal

import (
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// DefaultDebounce is the fixed flicker threshold. State runs shorter than
// this are treated as sensor noise and merged into their neighbors.
const DefaultDebounce = 80 * time.Millisecond

// Normalizer coalesces a monotonically-timestamped sample stream into
// closed/open intervals. An interval is only emitted once the state that
// follows it has been confirmed, so sub-debounce flickers can be absorbed
// into the surrounding interval before anything is released downstream.
type Normalizer struct {
	debounce time.Duration

	started  bool
	lastAt   time.Duration
	curState bool
	curStart time.Duration

	// Completed interval held back until the interval after it survives
	// the debounce check.
	held    model.Interval
	hasHeld bool

	dropped int

	// OnDrop, if set, is called for each rejected non-monotonic sample.
	OnDrop func(model.Sample)
}

// New creates a Normalizer with the given flicker threshold.
// A non-positive debounce falls back to DefaultDebounce.
func New(debounce time.Duration) *Normalizer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Normalizer{debounce: debounce}
}

// Push consumes one sample and returns any intervals finalized by it.
// Samples with decreasing timestamps are dropped; the stream continues.
func (n *Normalizer) Push(s model.Sample) []model.Interval {
	if n.started && s.At < n.lastAt {
		n.dropped++
		if n.OnDrop != nil {
			n.OnDrop(s)
		}
		return nil
	}
	if !n.started {
		n.started = true
		n.curState = s.Closed
		n.curStart = s.At
		n.lastAt = s.At
		return nil
	}
	n.lastAt = s.At
	if s.Closed == n.curState {
		// Once the current run outlives the debounce window it can no
		// longer turn out to be a flicker, so the held interval is final.
		if n.hasHeld && s.At-n.curStart >= n.debounce {
			n.hasHeld = false
			return []model.Interval{n.held}
		}
		return nil
	}

	cur := model.Interval{Start: n.curStart, End: s.At, Closed: n.curState}
	if cur.Duration() < n.debounce {
		// Flicker. Rejoin the held interval of the opposite state,
		// extending it across the gap. If nothing is held yet the
		// flicker is absorbed into the interval that follows it.
		if n.hasHeld {
			n.curState = n.held.Closed
			n.curStart = n.held.Start
			n.hasHeld = false
		} else {
			n.curState = s.Closed
		}
		return nil
	}

	var out []model.Interval
	if n.hasHeld {
		out = append(out, n.held)
	}
	n.held = cur
	n.hasHeld = true
	n.curState = s.Closed
	n.curStart = s.At
	return out
}

// Pending returns the interval currently being built, up to the latest
// accepted sample. ok is false before the first sample or while the
// in-progress run has zero length.
func (n *Normalizer) Pending() (model.Interval, bool) {
	if !n.started || n.lastAt <= n.curStart {
		return model.Interval{}, false
	}
	return model.Interval{Start: n.curStart, End: n.lastAt, Closed: n.curState}, true
}

// Flush releases the held interval and the in-progress one, if any.
// An in-progress run still inside the debounce window is discarded as a
// trailing flicker. Intended for end-of-stream handling in batch decoding.
func (n *Normalizer) Flush() []model.Interval {
	var out []model.Interval
	if n.hasHeld {
		out = append(out, n.held)
		n.hasHeld = false
	}
	if iv, ok := n.Pending(); ok {
		if iv.Duration() >= n.debounce {
			out = append(out, iv)
		}
		n.curStart = n.lastAt
	}
	return out
}

// LastAt returns the timestamp of the latest accepted sample, or zero
// before the first one.
func (n *Normalizer) LastAt() time.Duration {
	return n.lastAt
}

// Dropped returns the number of non-monotonic samples rejected so far.
func (n *Normalizer) Dropped() int {
	return n.dropped
}

// Reset clears all stream state. The debounce setting is kept.
func (n *Normalizer) Reset() {
	n.started = false
	n.lastAt = 0
	n.curState = false
	n.curStart = 0
	n.hasHeld = false
	n.held = model.Interval{}
	n.dropped = 0
}
