package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/punch/internal/timesheet"
)

// Toggler flips the employee between checked in and checked out
type Toggler interface {
	Toggle(ctx context.Context, employeeID string) (timesheet.DayView, error)
	Now() time.Time
}

// ClockModel shows today's worked time as a big clock
type ClockModel struct {
	ctx      context.Context
	svc      Toggler
	employee string
	name     string

	width  int
	height int

	view  timesheet.DayView
	state timesheet.TimerState
	now   time.Time

	// seq tags the live tick chain; ticks from older chains are dropped
	seq int

	busy       bool
	violations []string
	err        error
	toggles    int
}

// clockTickMsg is one second of a tick chain
type clockTickMsg struct {
	seq int
	at  time.Time
}

type toggledMsg struct {
	view timesheet.DayView
	err  error
}

func NewClockModel(ctx context.Context, svc Toggler, employeeID, name string, view timesheet.DayView) ClockModel {
	return ClockModel{
		ctx:      ctx,
		svc:      svc,
		employee: employeeID,
		name:     name,
		view:     view,
		state:    view.Timer,
		now:      svc.Now(),
		seq:      1,
	}
}

func (m ClockModel) Init() tea.Cmd {
	if m.state.Running() {
		return clockTick(m.seq)
	}
	return nil
}

func clockTick(seq int) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg{seq: seq, at: t}
	})
}

func (m ClockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clockTickMsg:
		if msg.seq != m.seq || !m.state.Running() {
			return m, nil
		}
		m.now = msg.at
		return m, clockTick(m.seq)

	case toggledMsg:
		m.busy = false
		return m.applyToggle(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case " ", "enter":
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.toggle()
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ClockModel) toggle() tea.Cmd {
	ctx, svc, employee := m.ctx, m.svc, m.employee
	return func() tea.Msg {
		view, err := svc.Toggle(ctx, employee)
		return toggledMsg{view: view, err: err}
	}
}

func (m ClockModel) applyToggle(msg toggledMsg) (ClockModel, tea.Cmd) {
	if msg.err != nil {
		var verr *timesheet.ValidationError
		if errors.As(msg.err, &verr) {
			m.violations = verr.Messages()
			m.err = nil
		} else {
			m.violations = nil
			m.err = msg.err
		}
		return m, nil
	}

	m.violations = nil
	m.err = nil
	m.toggles++
	m.view = msg.view
	m.state = msg.view.Timer
	m.now = m.svc.Now()

	// a new chain starts on every transition; bumping seq retires the old one
	m.seq++
	if m.state.Running() {
		return m, clockTick(m.seq)
	}
	return m, nil
}

// Toggles is how many transitions were recorded while the view was open
func (m ClockModel) Toggles() int {
	return m.toggles
}

func (m ClockModel) State() timesheet.TimerState {
	return m.state
}

func (m ClockModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var parts []string

	header := "CHECKED OUT"
	headerColor := ColorSecondaryText
	if m.state.Running() {
		header = "CHECKED IN"
		headerColor = ColorSuccess
	}
	parts = append(parts, lipgloss.NewStyle().
		Foreground(lipgloss.Color(headerColor)).
		Bold(true).
		Render(header))

	if m.name != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimaryText)).
			Render(m.name+" · "+m.view.Day.String()))
	}

	parts = append(parts, renderBigClock(m.state.Display(m.now), m.state.Running()))
	parts = append(parts, m.renderSessions())

	if len(m.violations) > 0 {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		var b strings.Builder
		for _, v := range m.violations {
			b.WriteString("✗ " + v + "\n")
		}
		parts = append(parts, errStyle.Render(strings.TrimRight(b.String(), "\n")))
	}
	if m.err != nil {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Render("Error: "+m.err.Error()))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderHelpBar())
}

func (m ClockModel) renderSessions() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true)
	if len(m.view.Sessions) == 0 {
		return style.Render("No sessions today")
	}

	loc := m.now.Location()
	var lines []string
	for _, s := range m.view.Sessions {
		out := "…"
		if s.Out != nil {
			out = s.Out.Time(loc).Format("15:04:05")
		}
		lines = append(lines, fmt.Sprintf("%s → %s  %s",
			s.In.Time(loc).Format("15:04:05"), out,
			timesheet.FormatClock(int64(s.Duration(m.now)/time.Second))))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m ClockModel) renderHelpBar() string {
	action := "check in"
	if m.state.Running() {
		action = "check out"
	}
	if m.busy {
		action = "saving..."
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("space " + action + " · q quit")
}

// three columns per glyph, five rows
var bigGlyphs = map[rune][5]string{
	'0': {"███", "█ █", "█ █", "█ █", "███"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"███", "  █", "███", "█  ", "███"},
	'3': {"███", "  █", " ██", "  █", "███"},
	'4': {"█ █", "█ █", "███", "  █", "  █"},
	'5': {"███", "█  ", "███", "  █", "███"},
	'6': {"███", "█  ", "███", "█ █", "███"},
	'7': {"███", "  █", " █ ", " █ ", " █ "},
	'8': {"███", "█ █", "███", "█ █", "███"},
	'9': {"███", "█ █", "███", "  █", "███"},
	':': {" ", "█", " ", "█", " "},
}

func renderBigClock(display string, running bool) string {
	var rows [5]strings.Builder
	for _, r := range display {
		glyph, ok := bigGlyphs[r]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i].WriteString(glyph[i])
			rows[i].WriteString(" ")
		}
	}

	color := ColorDisabledText
	if running {
		color = ColorAccentBright
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)

	lines := make([]string, len(rows))
	for i := range rows {
		lines[i] = style.Render(rows[i].String())
	}
	return strings.Join(lines, "\n")
}
