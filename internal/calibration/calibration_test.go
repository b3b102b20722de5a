package calibration

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func closedIv(durMs int) model.Interval {
	return model.Interval{Start: 0, End: ms(durMs), Closed: true}
}

func openIv(durMs int) model.Interval {
	return model.Interval{Start: 0, End: ms(durMs), Closed: false}
}

func record(t *testing.T, s *Session, p Prompt, durationsMs []int) {
	t.Helper()
	for _, d := range durationsMs {
		iv := openIv(d)
		if p.Closed() {
			iv = closedIv(d)
		}
		if !s.Record(p, iv) {
			t.Fatalf("sample %dms rejected for %s", d, p)
		}
	}
}

func TestRecordRejectsWrongState(t *testing.T) {
	s := NewSession(DefaultConfig())
	if s.Record(PromptShortBlink, openIv(150)) {
		t.Fatalf("open interval accepted for a blink prompt")
	}
	if s.Record(PromptLetterPause, closedIv(900)) {
		t.Fatalf("closed interval accepted for a pause prompt")
	}
	if s.Record(PromptShortBlink, closedIv(10)) {
		t.Fatalf("implausibly short sample accepted")
	}
	if s.Count(PromptShortBlink) != 0 {
		t.Fatalf("rejected samples were counted")
	}
}

func TestFinalizeDerivesOrderedProfile(t *testing.T) {
	s := NewSession(DefaultConfig())
	record(t, s, PromptShortBlink, []int{100, 110, 120, 130, 140})
	record(t, s, PromptLongBlink, []int{700, 750, 800, 850, 900})
	record(t, s, PromptLetterPause, []int{900, 950, 1000, 1050, 1100})
	record(t, s, PromptWordPause, []int{2800, 2900, 3000, 3100, 3200})
	if !s.Complete() {
		t.Fatalf("session not complete after %d samples per prompt", s.Need())
	}

	profile, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !profile.Valid() {
		t.Fatalf("profile violates ordering: %+v", profile)
	}
	// mean 120ms + 2 std devs (~16ms each) lands near 152ms.
	if profile.ShortBlinkMax < ms(145) || profile.ShortBlinkMax > ms(160) {
		t.Fatalf("ShortBlinkMax = %v, want ~152ms", profile.ShortBlinkMax)
	}
	// mean 800ms - 2 std devs (~79ms each) lands near 642ms.
	if profile.LongBlinkMin < ms(630) || profile.LongBlinkMin > ms(655) {
		t.Fatalf("LongBlinkMin = %v, want ~642ms", profile.LongBlinkMin)
	}
	if profile.LetterGapMin >= profile.WordGapMin {
		t.Fatalf("gap thresholds out of order: %+v", profile)
	}
}

func TestFinalizeTooFewSamples(t *testing.T) {
	s := NewSession(DefaultConfig())
	record(t, s, PromptShortBlink, []int{100, 110, 120})
	_, err := s.Finalize()
	if !errors.Is(err, ErrTooFewSamples) {
		t.Fatalf("err = %v, want ErrTooFewSamples", err)
	}
}

func TestFinalizeOverlappingBlinks(t *testing.T) {
	s := NewSession(DefaultConfig())
	// Short and long blinks too close together: the derived boundaries cross.
	record(t, s, PromptShortBlink, []int{300, 310, 320, 330, 340})
	record(t, s, PromptLongBlink, []int{360, 370, 380, 390, 400})
	record(t, s, PromptLetterPause, []int{900, 950, 1000, 1050, 1100})
	record(t, s, PromptWordPause, []int{2800, 2900, 3000, 3100, 3200})
	_, err := s.Finalize()
	if !errors.Is(err, ErrBlinkOverlap) {
		t.Fatalf("err = %v, want ErrBlinkOverlap", err)
	}
}

func TestFinalizeOverlappingGaps(t *testing.T) {
	s := NewSession(DefaultConfig())
	record(t, s, PromptShortBlink, []int{100, 110, 120, 130, 140})
	record(t, s, PromptLongBlink, []int{700, 750, 800, 850, 900})
	record(t, s, PromptLetterPause, []int{2000, 2100, 2200, 2300, 2400})
	record(t, s, PromptWordPause, []int{2000, 2100, 2200, 2300, 2400})
	_, err := s.Finalize()
	if !errors.Is(err, ErrGapOverlap) {
		t.Fatalf("err = %v, want ErrGapOverlap", err)
	}
}

func TestOutlierTrimmed(t *testing.T) {
	s := NewSession(DefaultConfig())
	record(t, s, PromptShortBlink, []int{100, 100, 100, 100, 100})
	record(t, s, PromptLongBlink, []int{800, 800, 800, 800, 800})
	// One wild 5s pause among steady 1s pauses must not distort the fit.
	record(t, s, PromptLetterPause, []int{1000, 1000, 1000, 1000, 1000, 5000})
	record(t, s, PromptWordPause, []int{3000, 3000, 3000, 3000, 3000})
	profile, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if profile.LetterGapMin != time.Second {
		t.Fatalf("LetterGapMin = %v, want 1s after outlier trim", profile.LetterGapMin)
	}
}

type fakeStore struct {
	profile model.ThresholdProfile
	ok      bool
	saved   []model.ThresholdProfile
}

func (f *fakeStore) LoadProfile() (model.ThresholdProfile, bool, error) {
	return f.profile, f.ok, nil
}

func (f *fakeStore) SaveProfile(p model.ThresholdProfile) error {
	f.saved = append(f.saved, p)
	return nil
}

func TestManagerLoadsPersistedProfile(t *testing.T) {
	persisted := model.ThresholdProfile{
		ShortBlinkMax: ms(250),
		LongBlinkMin:  ms(450),
		LetterGapMin:  ms(900),
		WordGapMin:    ms(2000),
	}
	var applied []model.ThresholdProfile
	m, err := NewManager(&fakeStore{profile: persisted, ok: true}, func(p model.ThresholdProfile) {
		applied = append(applied, p)
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Active() != persisted {
		t.Fatalf("Active = %+v, want persisted profile", m.Active())
	}
	if len(applied) != 1 || applied[0] != persisted {
		t.Fatalf("applied = %v, want the persisted profile once", applied)
	}
}

func TestManagerDefaultsWithoutStore(t *testing.T) {
	m, err := NewManager(nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Active() != model.DefaultProfile() {
		t.Fatalf("Active = %+v, want defaults", m.Active())
	}
}

func TestManagerFinalizePersistsAndApplies(t *testing.T) {
	store := &fakeStore{}
	var applied []model.ThresholdProfile
	m, err := NewManager(store, func(p model.ThresholdProfile) {
		applied = append(applied, p)
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	m.Begin(DefaultConfig())
	s := m.Session()
	record(t, s, PromptShortBlink, []int{100, 110, 120, 130, 140})
	record(t, s, PromptLongBlink, []int{700, 750, 800, 850, 900})
	record(t, s, PromptLetterPause, []int{900, 950, 1000, 1050, 1100})
	record(t, s, PromptWordPause, []int{2800, 2900, 3000, 3100, 3200})

	profile, err := m.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if m.Active() != profile {
		t.Fatalf("Active = %+v, want the finalized profile", m.Active())
	}
	if len(store.saved) != 1 || store.saved[0] != profile {
		t.Fatalf("saved = %v, want the finalized profile once", store.saved)
	}
	if len(applied) != 2 {
		t.Fatalf("applied %d times, want initial + finalized", len(applied))
	}
}

func TestManagerAbortKeepsActiveProfile(t *testing.T) {
	m, err := NewManager(nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	before := m.Active()
	m.Begin(DefaultConfig())
	if _, err := m.Record(PromptShortBlink, closedIv(120)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	m.Abort()
	if m.Active() != before {
		t.Fatalf("abort changed the active profile")
	}
	if _, err := m.Finalize(); !errors.Is(err, ErrNotCollecting) {
		t.Fatalf("Finalize after abort = %v, want ErrNotCollecting", err)
	}
}
