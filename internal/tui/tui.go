package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/timesheet"
)

// RunClock shows the live clock until the user quits
func RunClock(ctx context.Context, svc Toggler, employeeID, name string, view timesheet.DayView) error {
	p := tea.NewProgram(NewClockModel(ctx, svc, employeeID, name, view), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(ClockModel); ok {
		state := m.State()
		if state.Running() {
			fmt.Printf("🟢 Checked in · %s today\n", state.Display(svc.Now()))
		} else {
			fmt.Printf("⚪ Checked out · %s today\n", state.Display(svc.Now()))
		}
	}
	return nil
}

// RunEntryForm opens the entry form; editing nil creates a new record
func RunEntryForm(ctx context.Context, svc EntryService, employeeID string, day timesheet.Day, editing *models.AttendanceEvent) error {
	p := tea.NewProgram(NewEntryModel(ctx, svc, employeeID, day, editing), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := finalModel.(EntryModel)
	if !ok {
		return nil
	}
	switch m.Outcome() {
	case OutcomeSaved:
		ev := m.Saved()
		fmt.Printf("✅ Saved check-%s at %s - ID: %s\n", ev.StatusLabel(),
			ev.Time(svc.Location()).Format("15:04:05"), ev.AttendanceID)
	case OutcomeDeleted:
		fmt.Println("🗑️  Entry deleted.")
	default:
		fmt.Println("❌ Cancelled.")
	}
	return nil
}

// RunBoard shows the attendance board for day
func RunBoard(ctx context.Context, src BoardSource, day timesheet.Day) error {
	p := tea.NewProgram(NewBoardModel(ctx, src, day), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
