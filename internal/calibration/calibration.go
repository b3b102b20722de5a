// Package calibration fits personalized timing thresholds from guided
// sampling sessions.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// Prompt identifies which behavior the interaction layer asked the user
// to produce.
type Prompt int

// Prompt kinds.
const (
	PromptShortBlink Prompt = iota
	PromptLongBlink
	PromptLetterPause
	PromptWordPause
)

// Prompts lists all prompt kinds in guided order.
var Prompts = []Prompt{PromptShortBlink, PromptLongBlink, PromptLetterPause, PromptWordPause}

// String returns a short name for the prompt.
func (p Prompt) String() string {
	switch p {
	case PromptShortBlink:
		return "short blink"
	case PromptLongBlink:
		return "long blink"
	case PromptLetterPause:
		return "letter pause"
	case PromptWordPause:
		return "word pause"
	}
	return "unknown"
}

// Instruction returns the user-facing prompt text.
func (p Prompt) Instruction() string {
	switch p {
	case PromptShortBlink:
		return "Blink quickly"
	case PromptLongBlink:
		return "Close your eyes for about a second"
	case PromptLetterPause:
		return "Keep your eyes open briefly"
	case PromptWordPause:
		return "Keep your eyes open for a longer rest"
	}
	return ""
}

// Closed reports whether the prompt expects a closed-eye interval.
func (p Prompt) Closed() bool {
	return p == PromptShortBlink || p == PromptLongBlink
}

// Calibration failure reasons.
var (
	ErrNotCollecting      = errors.New("no calibration session in progress")
	ErrTooFewSamples      = errors.New("too few valid samples")
	ErrBlinkOverlap       = errors.New("short and long blink populations overlap")
	ErrGapOverlap         = errors.New("letter and word pause populations overlap")
	ErrInconsistentSample = errors.New("sample spread too wide to derive thresholds")
)

// Config holds the tunable calibration parameters.
type Config struct {
	// SamplesPerPrompt is the minimum number of valid samples each
	// population needs before Finalize can succeed.
	SamplesPerPrompt int
	// StdDevs is the multiplier applied to each population's standard
	// deviation when deriving its decision boundary.
	StdDevs float64
	// OutlierStdDevs trims samples farther than this many standard
	// deviations from their population mean.
	OutlierStdDevs float64
	// MinDuration and MaxDuration bound plausible samples; anything
	// outside is rejected at record time.
	MinDuration time.Duration
	MaxDuration time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		SamplesPerPrompt: 5,
		StdDevs:          2.0,
		OutlierStdDevs:   2.0,
		MinDuration:      40 * time.Millisecond,
		MaxDuration:      10 * time.Second,
	}
}

// Session collects guided samples and derives a ThresholdProfile.
// A session has no effect on any active profile until it is finalized.
type Session struct {
	cfg     Config
	samples map[Prompt][]time.Duration
}

// NewSession starts an empty collection with the given config.
func NewSession(cfg Config) *Session {
	if cfg.SamplesPerPrompt <= 0 {
		cfg.SamplesPerPrompt = DefaultConfig().SamplesPerPrompt
	}
	if cfg.StdDevs <= 0 {
		cfg.StdDevs = DefaultConfig().StdDevs
	}
	if cfg.OutlierStdDevs <= 0 {
		cfg.OutlierStdDevs = DefaultConfig().OutlierStdDevs
	}
	if cfg.MaxDuration <= cfg.MinDuration {
		cfg.MinDuration = DefaultConfig().MinDuration
		cfg.MaxDuration = DefaultConfig().MaxDuration
	}
	return &Session{
		cfg:     cfg,
		samples: make(map[Prompt][]time.Duration),
	}
}

// Record adds one observed interval for the given prompt. It reports
// whether the sample was accepted: intervals of the wrong eye state or
// with implausible durations are rejected without failing the session.
func (s *Session) Record(p Prompt, iv model.Interval) bool {
	if iv.Closed != p.Closed() {
		return false
	}
	d := iv.Duration()
	if d < s.cfg.MinDuration || d > s.cfg.MaxDuration {
		return false
	}
	s.samples[p] = append(s.samples[p], d)
	return true
}

// Count returns the number of accepted samples for a prompt.
func (s *Session) Count(p Prompt) int {
	return len(s.samples[p])
}

// Need returns the per-prompt sample target.
func (s *Session) Need() int {
	return s.cfg.SamplesPerPrompt
}

// Complete reports whether every population has reached its target.
func (s *Session) Complete() bool {
	for _, p := range Prompts {
		if len(s.samples[p]) < s.cfg.SamplesPerPrompt {
			return false
		}
	}
	return true
}

// Finalize derives a ThresholdProfile. It never returns a profile whose
// orderings are violated; such outcomes fail with a calibration error and
// leave whatever profile was previously active untouched.
func (s *Session) Finalize() (model.ThresholdProfile, error) {
	pops := make(map[Prompt]population, len(Prompts))
	for _, p := range Prompts {
		durations := trimOutliers(s.samples[p], s.cfg.OutlierStdDevs)
		if len(durations) < s.cfg.SamplesPerPrompt {
			return model.ThresholdProfile{}, fmt.Errorf(
				"%s: %w: have %d, need %d", p, ErrTooFewSamples, len(durations), s.cfg.SamplesPerPrompt)
		}
		pops[p] = newPopulation(durations)
	}

	k := s.cfg.StdDevs
	profile := model.ThresholdProfile{
		ShortBlinkMax: pops[PromptShortBlink].boundary(k),
		LongBlinkMin:  pops[PromptLongBlink].boundary(-k),
		LetterGapMin:  pops[PromptLetterPause].boundary(-k),
		WordGapMin:    pops[PromptWordPause].boundary(-k),
	}

	if profile.LongBlinkMin <= 0 || profile.LetterGapMin <= 0 || profile.WordGapMin <= 0 {
		return model.ThresholdProfile{}, ErrInconsistentSample
	}
	if profile.ShortBlinkMax >= profile.LongBlinkMin {
		return model.ThresholdProfile{}, fmt.Errorf(
			"%w: short max %v, long min %v", ErrBlinkOverlap, profile.ShortBlinkMax, profile.LongBlinkMin)
	}
	if profile.LetterGapMin >= profile.WordGapMin {
		return model.ThresholdProfile{}, fmt.Errorf(
			"%w: letter min %v, word min %v", ErrGapOverlap, profile.LetterGapMin, profile.WordGapMin)
	}
	return profile, nil
}

// population holds the summary statistics of one prompt's samples.
type population struct {
	mean   float64 // seconds
	stddev float64
}

func newPopulation(durations []time.Duration) population {
	return population{
		mean:   meanSeconds(durations),
		stddev: stddevSeconds(durations),
	}
}

// boundary returns mean + k*stddev as a duration. Callers pass a negative
// k to place the boundary below the population.
func (p population) boundary(k float64) time.Duration {
	return time.Duration((p.mean + k*p.stddev) * float64(time.Second))
}

func meanSeconds(durations []time.Duration) float64 {
	if len(durations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range durations {
		sum += d.Seconds()
	}
	return sum / float64(len(durations))
}

func stddevSeconds(durations []time.Duration) float64 {
	if len(durations) < 2 {
		return 0
	}
	mean := meanSeconds(durations)
	var sum float64
	for _, d := range durations {
		diff := d.Seconds() - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(durations)-1))
}

// trimOutliers drops samples beyond k standard deviations from the mean.
// Small populations are returned unchanged; there is not enough signal to
// call anything an outlier.
func trimOutliers(durations []time.Duration, k float64) []time.Duration {
	if len(durations) < 5 {
		return durations
	}
	mean := meanSeconds(durations)
	stddev := stddevSeconds(durations)
	if stddev == 0 {
		return durations
	}
	kept := make([]time.Duration, 0, len(durations))
	for _, d := range durations {
		if math.Abs(d.Seconds()-mean) <= k*stddev {
			kept = append(kept, d)
		}
	}
	return kept
}

// Store persists threshold profiles. The bytes and format belong to the
// collaborator behind this interface.
type Store interface {
	LoadProfile() (model.ThresholdProfile, bool, error)
	SaveProfile(model.ThresholdProfile) error
}

// Manager owns the active ThresholdProfile and runs calibration sessions
// against it. Replacement of the active profile happens only on a
// successful Finalize; aborting a session has no side effect.
type Manager struct {
	mu      sync.Mutex
	store   Store
	apply   func(model.ThresholdProfile)
	active  model.ThresholdProfile
	session *Session
}

// NewManager loads the persisted profile, falling back to the defaults
// when none exists. apply is invoked with every newly active profile,
// including the initial one.
func NewManager(store Store, apply func(model.ThresholdProfile)) (*Manager, error) {
	m := &Manager{store: store, apply: apply, active: model.DefaultProfile()}
	if store != nil {
		profile, ok, err := store.LoadProfile()
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		if ok {
			if !profile.Valid() {
				return nil, fmt.Errorf("persisted profile violates threshold ordering")
			}
			m.active = profile
		}
	}
	if m.apply != nil {
		m.apply(m.active)
	}
	return m, nil
}

// Active returns the profile currently in effect.
func (m *Manager) Active() model.ThresholdProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Begin starts a new collection, discarding any previous unfinished one.
func (m *Manager) Begin(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = NewSession(cfg)
}

// Record forwards a sample to the running session.
func (m *Manager) Record(p Prompt, iv model.Interval) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return false, ErrNotCollecting
	}
	return m.session.Record(p, iv), nil
}

// Session exposes the running session for progress display, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Abort discards the running session without touching the active profile.
func (m *Manager) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

// Finalize derives, persists, and activates a new profile. On any error
// the previously active profile remains in effect.
func (m *Manager) Finalize() (model.ThresholdProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return model.ThresholdProfile{}, ErrNotCollecting
	}
	profile, err := m.session.Finalize()
	if err != nil {
		return model.ThresholdProfile{}, err
	}
	if m.store != nil {
		if err := m.store.SaveProfile(profile); err != nil {
			return model.ThresholdProfile{}, fmt.Errorf("save profile: %w", err)
		}
	}
	m.session = nil
	m.active = profile
	if m.apply != nil {
		m.apply(profile)
	}
	return profile, nil
}
