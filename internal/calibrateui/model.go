// Package calibrateui provides the Bubble Tea guided calibration interface.
package calibrateui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/blinkmorse/internal/calibration"
	"github.com/verte-zerg/blinkmorse/internal/model"
)

var (
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	instructionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	timingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FC3F7")).Bold(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	rejectStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	resultStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

// Model implements the Bubble Tea calibration UI. Each prompt is sampled
// by pressing space at the start and the end of the blink or pause.
type Model struct {
	mgr *calibration.Manager

	clockStart    time.Time
	promptIdx     int
	timing        bool
	intervalStart time.Duration

	prog   progress.Model
	width  int
	height int

	notice string

	done    bool
	aborted bool
	result  model.ThresholdProfile
	runErr  error
}

// NewModel constructs a calibration model over a started manager session.
func NewModel(mgr *calibration.Manager) *Model {
	return &Model{
		mgr:        mgr,
		clockStart: time.Now(),
		prog:       progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 4
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.prog.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if m.done {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.mgr.Abort()
			m.aborted = true
			m.done = true
			return m, tea.Quit
		case tea.KeySpace:
			m.handleSpace()
			return m, nil
		case tea.KeyRunes:
			if msg.String() == "q" {
				m.mgr.Abort()
				m.aborted = true
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *Model) handleSpace() {
	now := time.Since(m.clockStart)
	if !m.timing {
		m.timing = true
		m.intervalStart = now
		m.notice = ""
		return
	}
	m.timing = false
	prompt := calibration.Prompts[m.promptIdx]
	iv := model.Interval{Start: m.intervalStart, End: now, Closed: prompt.Closed()}
	accepted, err := m.mgr.Record(prompt, iv)
	if err != nil {
		m.runErr = err
		m.done = true
		return
	}
	if !accepted {
		m.notice = fmt.Sprintf("sample rejected (%s); try again", iv.Duration().Round(time.Millisecond))
		return
	}
	m.advance()
}

func (m *Model) advance() {
	sess := m.mgr.Session()
	if sess == nil {
		return
	}
	prompt := calibration.Prompts[m.promptIdx]
	if sess.Count(prompt) < sess.Need() {
		return
	}
	if m.promptIdx < len(calibration.Prompts)-1 {
		m.promptIdx++
		return
	}
	profile, err := m.mgr.Finalize()
	if err != nil {
		m.runErr = err
	} else {
		m.result = profile
	}
	m.done = true
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Calibration"))
	b.WriteString("\n\n")
	if m.done {
		b.WriteString(m.renderOutcome())
		return b.String()
	}

	prompt := calibration.Prompts[m.promptIdx]
	b.WriteString(instructionStyle.Render(prompt.Instruction()))
	b.WriteString("\n")
	if m.timing {
		b.WriteString(timingStyle.Render("timing... press space to stop"))
	} else {
		b.WriteString(mutedStyle.Render("press space to start"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.prog.ViewAs(m.fraction()))
	b.WriteString("\n")
	sess := m.mgr.Session()
	if sess != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%s: %d of %d", prompt, sess.Count(prompt), sess.Need())))
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(rejectStyle.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("q: abort"))
	return b.String()
}

func (m *Model) renderOutcome() string {
	switch {
	case m.aborted:
		return mutedStyle.Render("Calibration aborted; previous profile kept.")
	case m.runErr != nil:
		return rejectStyle.Render(fmt.Sprintf("Calibration failed: %v", m.runErr))
	default:
		p := m.result
		return resultStyle.Render(fmt.Sprintf(
			"Calibration complete.\ndot ≤ %s\ndash ≥ %s\nletter pause ≥ %s\nword pause ≥ %s\n\npress any key to exit",
			p.ShortBlinkMax.Round(time.Millisecond),
			p.LongBlinkMin.Round(time.Millisecond),
			p.LetterGapMin.Round(time.Millisecond),
			p.WordGapMin.Round(time.Millisecond)))
	}
}

func (m *Model) fraction() float64 {
	sess := m.mgr.Session()
	if sess == nil {
		if m.done && m.runErr == nil && !m.aborted {
			return 1
		}
		return 0
	}
	need := sess.Need() * len(calibration.Prompts)
	if need == 0 {
		return 0
	}
	have := 0
	for _, p := range calibration.Prompts {
		have += sess.Count(p)
	}
	f := float64(have) / float64(need)
	if f > 1 {
		f = 1
	}
	return f
}

// Result returns the derived profile when calibration succeeded.
func (m *Model) Result() (model.ThresholdProfile, bool) {
	return m.result, m.done && m.runErr == nil && !m.aborted
}

// Aborted reports whether the user cancelled the session.
func (m *Model) Aborted() bool {
	return m.aborted
}

// Err returns the calibration failure, if any.
func (m *Model) Err() error {
	return m.runErr
}
