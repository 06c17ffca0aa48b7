package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/punch/internal/timesheet"
)

// SearchDebounce is how long the board waits after the last keystroke
const SearchDebounce = 500 * time.Millisecond

// BoardSource loads every employee's status for a day
type BoardSource interface {
	Board(ctx context.Context, day timesheet.Day) ([]timesheet.BoardRow, error)
	Now() time.Time
}

// Focus is the board element receiving keys
type Focus int

const (
	FocusTable Focus = iota
	FocusSearch
)

// BoardModel lists who is checked in today
type BoardModel struct {
	ctx context.Context
	src BoardSource
	day timesheet.Day

	width  int
	height int

	rows     []timesheet.BoardRow
	visible  []timesheet.BoardRow
	selected int
	now      time.Time

	focus  Focus
	search textinput.Model
	query  string

	// keySeq tags debounce timers, gen tags fetches; only the latest of each counts
	keySeq  int
	gen     int
	loading bool
	err     error
}

type searchSettledMsg struct {
	seq int
}

type boardLoadedMsg struct {
	gen  int
	rows []timesheet.BoardRow
	at   time.Time
	err  error
}

func NewBoardModel(ctx context.Context, src BoardSource, day timesheet.Day) BoardModel {
	search := textinput.New()
	search.Placeholder = "search by name"
	search.Prompt = "/ "
	search.CharLimit = 60
	search.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	search.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))

	return BoardModel{
		ctx:     ctx,
		src:     src,
		day:     day,
		search:  search,
		now:     src.Now(),
		gen:     1,
		loading: true,
	}
}

func (m BoardModel) Init() tea.Cmd {
	return m.load(m.gen)
}

func (m BoardModel) load(gen int) tea.Cmd {
	ctx, src, day := m.ctx, m.src, m.day
	return func() tea.Msg {
		rows, err := src.Board(ctx, day)
		return boardLoadedMsg{gen: gen, rows: rows, at: src.Now(), err: err}
	}
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			m.now = msg.at
		}
		m.refilter()
		return m, nil

	case searchSettledMsg:
		if msg.seq != m.keySeq {
			return m, nil
		}
		m.query = strings.TrimSpace(m.search.Value())
		return m.reload()

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.handleSearchKeys(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil
		case "r":
			return m.reload()
		case "/":
			m.focus = FocusSearch
			return m, m.search.Focus()
		}
	}
	return m, nil
}

func (m BoardModel) handleSearchKeys(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.focus = FocusTable
		m.search.Blur()
		m.search.SetValue("")
		m.keySeq++
		if m.query == "" {
			return m, nil
		}
		m.query = ""
		m.refilter()
		return m, nil
	case "enter":
		m.focus = FocusTable
		m.search.Blur()
		m.keySeq++
		m.query = strings.TrimSpace(m.search.Value())
		return m.reload()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	m.keySeq++
	seq := m.keySeq
	return m, tea.Batch(cmd, tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return searchSettledMsg{seq: seq}
	}))
}

// reload starts a fetch whose result supersedes any in flight
func (m BoardModel) reload() (BoardModel, tea.Cmd) {
	m.gen++
	m.loading = true
	return m, m.load(m.gen)
}

func (m *BoardModel) refilter() {
	q := strings.ToLower(m.query)
	var visible []timesheet.BoardRow
	for _, r := range m.rows {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) {
			visible = append(visible, r)
		}
	}
	m.visible = visible
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

// Visible returns the rows matching the current search
func (m BoardModel) Visible() []timesheet.BoardRow {
	return m.visible
}

func (m BoardModel) View() string {
	var b strings.Builder

	present := 0
	for _, r := range m.rows {
		if r.Present() {
			present++
		}
	}
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(fmt.Sprintf("Attendance · %s · %d/%d in", m.day, present, len(m.rows))))
	b.WriteString("\n\n")

	if m.focus == FocusSearch || m.query != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderTable())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("Error: " + m.err.Error()))
	}

	help := "↑/↓ move · / search · r refresh · q quit"
	if m.focus == FocusSearch {
		help = "enter apply · esc clear"
	}
	if m.loading {
		help = "loading... · " + help
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).Render(help))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Render(b.String())
}

func (m BoardModel) renderTable() string {
	if len(m.visible) == 0 {
		msg := "No employees"
		if m.query != "" {
			msg = fmt.Sprintf("Nobody matches %q", m.query)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Italic(true).Render(msg)
	}

	header := fmt.Sprintf("  %-24s %-6s %-9s %s", "NAME", "STATUS", "SINCE", "TODAY")
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Bold(true).Render(header))
	b.WriteString("\n")

	loc := m.now.Location()
	for i, r := range m.visible {
		status, since, color := "out", "-", ColorDisabledText
		if open := r.Open(); open != nil {
			status, since, color = "in", open.In.Time(loc).Format("15:04"), ColorSuccess
		}
		cursor := "  "
		if i == m.selected {
			cursor = "▸ "
		}
		name := r.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}

		line := fmt.Sprintf("%s%-24s ", cursor, name) +
			lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(fmt.Sprintf("%-6s", status)) +
			fmt.Sprintf(" %-9s %s", since, r.Timer.Display(m.now))
		if i == m.selected {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true).Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
