package classifier

import (
	"testing"
	"time"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func testProfile() model.ThresholdProfile {
	return model.ThresholdProfile{
		ShortBlinkMax: ms(200),
		LongBlinkMin:  ms(400),
		LetterGapMin:  ms(600),
		WordGapMin:    ms(1500),
	}
}

func TestClassifyClosed(t *testing.T) {
	p := testProfile()
	cases := []struct {
		d    time.Duration
		want ClosedClass
	}{
		{ms(50), ClosedDot},
		{ms(200), ClosedDot}, // exactly at the boundary stays a dot
		{ms(201), ClosedAmbiguous},
		{ms(399), ClosedAmbiguous},
		{ms(400), ClosedDash}, // boundary resolves to the longer symbol
		{ms(2000), ClosedDash},
	}
	for _, tc := range cases {
		if got := ClassifyClosed(tc.d, p); got != tc.want {
			t.Fatalf("ClassifyClosed(%v) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestClassifyGap(t *testing.T) {
	p := testProfile()
	cases := []struct {
		d    time.Duration
		want GapClass
	}{
		{ms(100), GapNone},
		{ms(599), GapNone},
		{ms(600), GapLetter},
		{ms(1499), GapLetter},
		{ms(1500), GapWord}, // boundary resolves to the word gap
		{ms(9000), GapWord},
	}
	for _, tc := range cases {
		if got := ClassifyGap(tc.d, p); got != tc.want {
			t.Fatalf("ClassifyGap(%v) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestClassifyClosedIsPure(t *testing.T) {
	p := testProfile()
	for i := 0; i < 5; i++ {
		if got := ClassifyClosed(ms(300), p); got != ClosedAmbiguous {
			t.Fatalf("classification changed between calls: %v", got)
		}
	}
}

func collect(c *Classifier) *[]model.SymbolEvent {
	events := &[]model.SymbolEvent{}
	c.OnSymbol = func(ev model.SymbolEvent) {
		*events = append(*events, ev)
	}
	return events
}

func TestClosedIntervalEmitsSymbols(t *testing.T) {
	c := New(testProfile())
	events := collect(c)
	var ambiguous []model.Interval
	c.OnAmbiguous = func(iv model.Interval) {
		ambiguous = append(ambiguous, iv)
	}

	c.ClosedInterval(model.Interval{Start: ms(0), End: ms(150), Closed: true})
	c.ClosedInterval(model.Interval{Start: ms(500), End: ms(1000), Closed: true})
	c.ClosedInterval(model.Interval{Start: ms(1500), End: ms(1800), Closed: true}) // 300ms dead zone

	want := []model.SymbolEvent{
		{Kind: model.KindDot, Duration: ms(150), At: ms(150)},
		{Kind: model.KindDash, Duration: ms(500), At: ms(1000)},
	}
	if len(*events) != len(want) {
		t.Fatalf("events = %v, want %v", *events, want)
	}
	for i := range want {
		if (*events)[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, (*events)[i], want[i])
		}
	}
	if len(ambiguous) != 1 || ambiguous[0].Duration() != ms(300) {
		t.Fatalf("ambiguous = %v, want one 300ms interval", ambiguous)
	}
}

func TestOpenProgressEmitsEachBoundaryOnce(t *testing.T) {
	c := New(testProfile())
	events := collect(c)

	c.ClosedInterval(model.Interval{Start: ms(0), End: ms(100), Closed: true})
	c.OpenProgress(ms(300), ms(400))
	c.OpenProgress(ms(700), ms(800))
	c.OpenProgress(ms(900), ms(1000))  // letter gap already reported
	c.OpenProgress(ms(1600), ms(1700)) // crosses the word boundary
	c.OpenProgress(ms(2000), ms(2100)) // word gap already reported

	want := []model.SymbolEvent{
		{Kind: model.KindDot, Duration: ms(100), At: ms(100)},
		{Kind: model.KindLetterGap, Duration: ms(700), At: ms(800)},
		{Kind: model.KindWordGap, Duration: ms(1600), At: ms(1700)},
	}
	if len(*events) != len(want) {
		t.Fatalf("events = %v, want %v", *events, want)
	}
	for i := range want {
		if (*events)[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, (*events)[i], want[i])
		}
	}
}

func TestOpenStretchResetAfterClosure(t *testing.T) {
	c := New(testProfile())
	events := collect(c)

	c.OpenProgress(ms(700), ms(700))
	c.ClosedInterval(model.Interval{Start: ms(700), End: ms(800), Closed: true})
	c.OpenProgress(ms(700), ms(1500))

	var letterGaps int
	for _, ev := range *events {
		if ev.Kind == model.KindLetterGap {
			letterGaps++
		}
	}
	if letterGaps != 2 {
		t.Fatalf("letter gaps = %d, want one per open stretch", letterGaps)
	}
}

func TestLongOpenIntervalEmitsSingleWordGap(t *testing.T) {
	c := New(testProfile())
	events := collect(c)

	// A sparse stream can deliver the whole pause as one completed interval.
	c.OpenProgress(ms(1500), ms(1500))

	if len(*events) != 1 || (*events)[0].Kind != model.KindWordGap {
		t.Fatalf("events = %v, want a single word gap", *events)
	}
}

func TestSetProfileSwapsAtomically(t *testing.T) {
	c := New(testProfile())
	p := c.Profile()
	p.ShortBlinkMax = ms(250)
	c.SetProfile(p)
	if got := c.Profile().ShortBlinkMax; got != ms(250) {
		t.Fatalf("ShortBlinkMax = %v after swap", got)
	}
	if got := ClassifyClosed(ms(220), c.Profile()); got != ClosedDot {
		t.Fatalf("classification did not observe the new profile: %v", got)
	}
}
