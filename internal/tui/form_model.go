package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/parser"
	"github.com/balkashynov/punch/internal/timesheet"
)

// EntryService persists manual corrections
type EntryService interface {
	Submit(ctx context.Context, p timesheet.Proposal, day timesheet.Day) (models.AttendanceEvent, error)
	Delete(ctx context.Context, employeeID string, day timesheet.Day, attendanceID string) error
	Location() *time.Location
}

// Outcome is how an entry form closed
type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeSaved
	OutcomeDeleted
)

const (
	fieldTime = iota
	fieldStatus
	fieldCount
)

// EntryModel edits one attendance record, or creates one when editing is nil
type EntryModel struct {
	ctx      context.Context
	svc      EntryService
	employee string
	day      timesheet.Day
	editing  *models.AttendanceEvent

	inputs []textinput.Model
	focus  int
	width  int
	height int

	busy       bool
	violations []string
	err        error

	showDeleteModal bool
	deleteChoice    bool // true for Yes

	outcome Outcome
	saved   models.AttendanceEvent
}

type submittedMsg struct {
	ev  models.AttendanceEvent
	err error
}

type deletedMsg struct {
	err error
}

func NewEntryModel(ctx context.Context, svc EntryService, employeeID string, day timesheet.Day, editing *models.AttendanceEvent) EntryModel {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 30
		inputs[i].TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		inputs[i].Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	}
	inputs[fieldTime].Placeholder = "HH:MM[:SS] or 9:30am"
	inputs[fieldTime].CharLimit = 25
	inputs[fieldStatus].Placeholder = "in / out"
	inputs[fieldStatus].CharLimit = 9

	if editing != nil {
		loc := svc.Location()
		inputs[fieldTime].SetValue(editing.Time(loc).Format("15:04:05"))
		inputs[fieldStatus].SetValue(parser.FormatStatus(editing.Status))
	}
	inputs[fieldTime].Focus()

	return EntryModel{
		ctx:      ctx,
		svc:      svc,
		employee: employeeID,
		day:      day,
		editing:  editing,
		inputs:   inputs,
	}
}

func (m EntryModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m EntryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case submittedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.saved = msg.ev
		m.outcome = OutcomeSaved
		return m, tea.Quit

	case deletedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.outcome = OutcomeDeleted
		return m, tea.Quit

	case tea.KeyMsg:
		if m.showDeleteModal {
			return m.handleDeleteModalKeys(msg)
		}
		if m.busy {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			m.outcome = OutcomeCancelled
			return m, tea.Quit
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		case "ctrl+d":
			if m.editing != nil {
				m.showDeleteModal = true
				m.deleteChoice = false
			}
			return m, nil
		case "enter":
			if m.focus < fieldCount-1 {
				return m.moveFocus(1), nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m EntryModel) handleDeleteModalKeys(msg tea.KeyMsg) (EntryModel, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "tab":
		m.deleteChoice = !m.deleteChoice
		return m, nil
	case "y", "Y":
		m.deleteChoice = true
	case "n", "N", "esc":
		m.showDeleteModal = false
		return m, nil
	case "enter":
	case "ctrl+c":
		return m, tea.Quit
	default:
		return m, nil
	}

	m.showDeleteModal = false
	if !m.deleteChoice {
		return m, nil
	}
	m.busy = true
	ctx, svc, employee, day, id := m.ctx, m.svc, m.employee, m.day, m.editing.AttendanceID
	return m, func() tea.Msg {
		return deletedMsg{err: svc.Delete(ctx, employee, day, id)}
	}
}

func (m EntryModel) moveFocus(delta int) EntryModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

func (m *EntryModel) setError(err error) {
	var verr *timesheet.ValidationError
	if errors.As(err, &verr) {
		m.violations = verr.Messages()
		m.err = nil
		return
	}
	m.violations = nil
	m.err = err
}

// submit parses both fields and hands the proposal to the service; input
// errors are reported together with nothing sent
func (m EntryModel) submit() (EntryModel, tea.Cmd) {
	m.violations = nil
	m.err = nil

	var problems []string
	at, err := parser.ParseClock(m.inputs[fieldTime].Value(), m.day, m.svc.Location())
	if err != nil {
		problems = append(problems, err.Error())
	}
	status, err := parser.ParseStatus(m.inputs[fieldStatus].Value())
	if err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		m.violations = problems
		return m, nil
	}

	p := timesheet.Proposal{
		EmployeeID: m.employee,
		At:         at,
		Status:     status,
		Editing:    m.editing,
	}
	m.busy = true
	ctx, svc, day := m.ctx, m.svc, m.day
	return m, func() tea.Msg {
		ev, err := svc.Submit(ctx, p, day)
		return submittedMsg{ev: ev, err: err}
	}
}

func (m EntryModel) Outcome() Outcome {
	return m.outcome
}

func (m EntryModel) Saved() models.AttendanceEvent {
	return m.saved
}

func (m EntryModel) View() string {
	var b strings.Builder

	title := "New attendance entry"
	if m.editing != nil {
		title = "Edit attendance entry"
	}
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(title + " · " + m.day.String()))
	b.WriteString("\n\n")

	labels := []string{"Time", "Status"}
	for i, input := range m.inputs {
		labelColor := ColorSecondaryText
		if i == m.focus {
			labelColor = ColorAccentBright
		}
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(labelColor)).
			Width(8).
			Render(labels[i]))
		b.WriteString(input.View())
		b.WriteString("\n")
	}

	if len(m.violations) > 0 {
		b.WriteString("\n")
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		for _, v := range m.violations {
			b.WriteString(errStyle.Render("✗ "+v) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	help := "tab next field · enter save · esc cancel"
	if m.editing != nil {
		help += " · ctrl+d delete"
	}
	if m.busy {
		help = "saving..."
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).Render(help))

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 2).
		Render(b.String())

	if m.showDeleteModal {
		return m.renderDeleteModal()
	}
	if m.width == 0 || m.height == 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}

func (m EntryModel) renderDeleteModal() string {
	yesStyle := lipgloss.NewStyle().Padding(0, 2)
	noStyle := lipgloss.NewStyle().Padding(0, 2)
	if m.deleteChoice {
		yesStyle = yesStyle.
			Background(lipgloss.Color(ColorError)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)
	} else {
		noStyle = noStyle.
			Background(lipgloss.Color(ColorAccentBright)).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)
	}

	var content strings.Builder
	content.WriteString("Delete this entry?\n\n")
	content.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, yesStyle.Render("Yes"), "   ", noStyle.Render("No")))
	content.WriteString("\n\n← → or Y/N, enter to confirm")

	modal := lipgloss.NewStyle().
		Width(44).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorError)).
		Background(lipgloss.Color(ColorCardBackground)).
		Padding(1).
		Align(lipgloss.Center).
		Render(content.String())

	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
