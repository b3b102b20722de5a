// Package tui provides the Bubble Tea live translation interface.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/blinkmorse/internal/engine"
	"github.com/verte-zerg/blinkmorse/internal/feed"
	"github.com/verte-zerg/blinkmorse/internal/model"
	statsPkg "github.com/verte-zerg/blinkmorse/internal/stats"
	"github.com/verte-zerg/blinkmorse/internal/store"
)

const (
	tickInterval    = 100 * time.Millisecond
	warningLifetime = 3 * time.Second
)

var (
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	bufferStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	previewStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	shortcutStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FC3F7"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	closedEyeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Options configures the live translation UI.
type Options struct {
	Engine   *engine.Engine
	Store    *store.Store // optional; sessions are persisted on exit when set
	Feed     *feed.Reader // sample stream input; nil in simulate mode
	Recorder *feed.Writer // optional raw-sample tee
	Simulate bool         // space toggles eye closure on the session clock
}

type sampleMsg model.Sample

type feedDoneMsg struct{}

type feedErrMsg struct{ err error }

type tickMsg time.Time

// Model implements the Bubble Tea live translation UI.
type Model struct {
	eng      *engine.Engine
	store    *store.Store
	feedR    *feed.Reader
	rec      *feed.Writer
	simulate bool

	startedAt  time.Time // wall clock, for the session record
	clockStart time.Time // session clock origin
	closed     bool      // simulated eyelid state
	lastFeedAt time.Duration

	width  int
	height int
	vp     viewport.Model

	warning   string
	warningAt time.Time

	feedDone bool
	runErr   error
	saved    bool
}

// NewModel constructs the live translation model.
func NewModel(opts Options) *Model {
	now := time.Now()
	m := &Model{
		eng:        opts.Engine,
		store:      opts.Store,
		feedR:      opts.Feed,
		rec:        opts.Recorder,
		simulate:   opts.Simulate,
		startedAt:  now,
		clockStart: now,
		vp:         viewport.New(0, 0),
	}
	m.eng.OnAmbiguous = func(iv model.Interval) {
		m.setWarning(fmt.Sprintf("ambiguous blink (%s)", iv.Duration().Round(time.Millisecond)))
	}
	m.eng.OnUnknown = func(seq string, _ time.Duration) {
		m.setWarning(fmt.Sprintf("unknown sequence %s", seq))
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.feedR != nil {
		cmds = append(cmds, m.readNext())
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// readNext delivers the next feed sample, paced by its timestamp so a
// recording plays back at the speed it was captured.
func (m *Model) readNext() tea.Cmd {
	r := m.feedR
	last := m.lastFeedAt
	return func() tea.Msg {
		s, err := r.Next()
		if err == io.EOF {
			return feedDoneMsg{}
		}
		if err != nil {
			return feedErrMsg{err: err}
		}
		if d := s.At - last; d > 0 {
			time.Sleep(d)
		}
		return sampleMsg(s)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		m.refreshViewport()
		return m, nil
	case sampleMsg:
		s := model.Sample(msg)
		m.lastFeedAt = s.At
		m.pushSample(s)
		return m, m.readNext()
	case feedDoneMsg:
		m.feedDone = true
		m.eng.Flush()
		m.refreshViewport()
		return m, nil
	case feedErrMsg:
		m.runErr = msg.err
		m.feedDone = true
		m.eng.Flush()
		m.setWarning(msg.err.Error())
		return m, nil
	case tickMsg:
		if m.simulate {
			// Re-assert the current state so pause progress is reported
			// even while nothing toggles.
			m.pushSample(model.Sample{At: time.Since(m.clockStart), Closed: m.closed})
		}
		if m.warning != "" && time.Since(m.warningAt) > warningLifetime {
			m.warning = ""
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, m.finish()
		case tea.KeySpace:
			if m.simulate {
				m.closed = !m.closed
				m.pushSample(model.Sample{At: time.Since(m.clockStart), Closed: m.closed})
			}
			return m, nil
		case tea.KeyRunes:
			if msg.String() == "q" {
				return m, m.finish()
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	b.WriteString(m.renderBufferLine())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.renderFooter()))
	return b.String()
}

func (m *Model) pushSample(s model.Sample) {
	if m.rec != nil {
		if err := m.rec.Write(s); err != nil {
			m.setWarning(fmt.Sprintf("recording failed: %v", err))
			m.rec = nil
		}
	}
	m.eng.Push(s)
	m.refreshViewport()
}

func (m *Model) resizeViewport() {
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	m.vp.Width = m.width
	m.vp.Height = h
}

func (m *Model) refreshViewport() {
	text := m.eng.Text()
	if text == "" {
		m.vp.SetContent(previewStyle.Render("Waiting for blinks..."))
		return
	}
	width := m.width
	if width < 1 {
		width = 1
	}
	m.vp.SetContent(textStyle.Render(wrapText(text, width)))
	m.vp.GotoBottom()
}

func (m *Model) renderBufferLine() string {
	buf := m.eng.Buffer()
	if buf == "" {
		if m.simulate && m.closed {
			return closedEyeStyle.Render("[eyes closed]")
		}
		return previewStyle.Render("·")
	}
	display := strings.NewReplacer(".", "·", "-", "–").Replace(buf)
	line := bufferStyle.Render(display)
	preview, shortcutPossible := m.eng.Preview()
	if preview != "" {
		line += "  " + previewStyle.Render("→ "+preview)
	}
	if shortcutPossible {
		line += "  " + shortcutStyle.Render("[quick command?]")
	}
	return line
}

func (m *Model) renderStatusLine() string {
	if m.warning != "" {
		return warningStyle.Render("! " + m.warning)
	}
	if m.feedDone {
		if m.runErr != nil {
			return warningStyle.Render("stream failed; press q to exit")
		}
		return previewStyle.Render("stream finished; press q to exit")
	}
	return ""
}

func (m *Model) renderFooter() string {
	p := m.eng.Profile()
	c := m.eng.Counters()
	elapsed := time.Since(m.clockStart)
	rate := 0.0
	if minutes := elapsed.Minutes(); minutes > 0 {
		rate = float64(c.Letters) / minutes
	}
	segments := []string{
		fmt.Sprintf("%.1f letters/min", rate),
		fmt.Sprintf("dot≤%s dash≥%s letter≥%s word≥%s",
			p.ShortBlinkMax.Round(time.Millisecond),
			p.LongBlinkMin.Round(time.Millisecond),
			p.LetterGapMin.Round(time.Millisecond),
			p.WordGapMin.Round(time.Millisecond)),
	}
	if c.Dropped > 0 {
		segments = append(segments, fmt.Sprintf("dropped %d", c.Dropped))
	}
	if m.simulate {
		segments = append(segments, "space: blink  q: quit")
	} else {
		segments = append(segments, "q: quit")
	}
	return strings.Join(segments, "  ")
}

func (m *Model) setWarning(text string) {
	m.warning = text
	m.warningAt = time.Now()
}

// finish flushes the pipeline, persists the session, and quits.
func (m *Model) finish() tea.Cmd {
	m.eng.Flush()
	m.saveSession()
	return tea.Quit
}

func (m *Model) saveSession() {
	if m.store == nil || m.saved {
		return
	}
	rec := m.eng.Record(m.startedAt, time.Now())
	if rec.Letters == 0 && rec.Ambiguous == 0 && rec.Unknown == 0 {
		return
	}
	if _, err := m.store.InsertSession(context.Background(), rec); err != nil {
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.saved = true
}

// FinalReport summarizes the session for printing after the UI exits.
func (m *Model) FinalReport() string {
	rec := m.eng.Record(m.startedAt, time.Now())
	if rec.Letters == 0 && rec.Ambiguous == 0 && rec.Unknown == 0 {
		return ""
	}
	metrics := statsPkg.SessionMetrics(rec)
	var b strings.Builder
	fmt.Fprintf(&b, "Decoded: %s\n", rec.Text)
	fmt.Fprintf(&b, "Letters: %d  Words: %d  %.1f letters/min\n",
		rec.Letters, rec.Words, metrics.LettersPerMinute)
	if rec.Ambiguous > 0 || rec.Unknown > 0 || rec.Dropped > 0 {
		fmt.Fprintf(&b, "Ambiguous: %d  Unknown: %d  Dropped samples: %d\n",
			rec.Ambiguous, rec.Unknown, rec.Dropped)
	}
	return b.String()
}

// Err reports a stream failure encountered while the UI was running.
func (m *Model) Err() error {
	return m.runErr
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
