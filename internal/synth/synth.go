// Package synth renders text into a timed eye-state sample stream that
// decodes back to its source. Useful for demo recordings and regression
// streams without a camera.
package synth

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
	"github.com/verte-zerg/blinkmorse/internal/morse"
)

// maxJitter bounds the random variation so jittered durations can never
// cross a classification threshold.
const maxJitter = 0.2

// Generator produces sample streams for a given threshold profile.
type Generator struct {
	rnd     *rand.Rand
	dict    *morse.Dictionary
	profile model.ThresholdProfile
	jitter  float64
}

// New returns a Generator seeded with the current time.
func New(profile model.ThresholdProfile, jitter float64) *Generator {
	return NewSeeded(profile, jitter, time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator for reproducible streams.
func NewSeeded(profile model.ThresholdProfile, jitter float64, seed int64) *Generator {
	if !profile.Valid() {
		profile = model.DefaultProfile()
	}
	if jitter < 0 {
		jitter = 0
	}
	if jitter > maxJitter {
		jitter = maxJitter
	}
	return &Generator{
		rnd:     rand.New(rand.NewSource(seed)),
		dict:    morse.DefaultDictionary(),
		profile: profile,
		jitter:  jitter,
	}
}

// Samples converts text into alternating closed/open state samples.
// Characters outside the dictionary fail rather than silently dropping.
func (g *Generator) Samples(text string) ([]model.Sample, error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}

	dot := g.profile.ShortBlinkMax * 3 / 5
	dash := g.profile.LongBlinkMin * 3 / 2
	symbolGap := g.profile.LetterGapMin / 2
	// Gaps that separate letters and words are not jittered; the halfway
	// point keeps them inside their classification band for any valid
	// profile.
	letterGap := g.profile.LetterGapMin + (g.profile.WordGapMin-g.profile.LetterGapMin)/2
	wordGap := g.profile.WordGapMin * 3 / 2

	var out []model.Sample
	at := time.Duration(0)
	pendingGap := time.Duration(0)

	for i, char := range strings.Split(text, "") {
		if char == " " {
			pendingGap = wordGap
			continue
		}
		seq, ok := g.dict.Encode(char)
		if !ok {
			return nil, fmt.Errorf("character %q has no morse sequence", char)
		}
		if i > 0 && pendingGap == 0 {
			pendingGap = letterGap
		}
		for j, sym := range seq {
			if j > 0 {
				at += g.vary(symbolGap)
			} else {
				at += pendingGap
				pendingGap = 0
			}
			dur := dot
			if sym == '-' {
				dur = dash
			}
			out = append(out, model.Sample{At: at, Closed: true})
			at += g.vary(dur)
			out = append(out, model.Sample{At: at, Closed: false})
		}
	}
	// Trailing open run long enough to flush the last word.
	out = append(out, model.Sample{At: at + wordGap, Closed: false})
	return out, nil
}

func (g *Generator) vary(d time.Duration) time.Duration {
	if d == 0 || g.jitter == 0 {
		return d
	}
	f := 1 + g.jitter*(2*g.rnd.Float64()-1)
	return time.Duration(float64(d) * f)
}
