package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/parser"
	"github.com/balkashynov/punch/internal/timesheet"
	"github.com/balkashynov/punch/internal/tui"
)

var addCmd = &cobra.Command{
	Use:   "add [time]",
	Short: "Add a missed check-in or check-out",
	Long: `Add a check-in or check-out at a past time. Without a time, or with -i, opens
the entry form.

Examples:
  punch add 09:00 --status in
  punch add 17:30 --status out --day 2026-10-14
  punch add "2026-10-14 17:30" -s out
  punch add -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		id, _, err := a.employee(ctx)
		if err != nil {
			return err
		}
		day, err := dayFlag(cmd, a)
		if err != nil {
			return err
		}

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive || len(args) == 0 {
			return tui.RunEntryForm(ctx, a.svc, id, day, nil)
		}

		at, err := parser.ParseClock(args[0], day, a.loc)
		if err != nil {
			return err
		}
		statusFlag, _ := cmd.Flags().GetString("status")
		if statusFlag == "" {
			return fmt.Errorf("--status is required (in or out)")
		}
		status, err := parser.ParseStatus(statusFlag)
		if err != nil {
			return err
		}

		// a full date in the time argument moves the entry to that day
		day = timesheet.DayOf(at)
		saved, err := a.svc.Submit(ctx, timesheet.Proposal{EmployeeID: id, At: at, Status: status}, day)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added check-%s at %s %s - ID: %s\n", saved.StatusLabel(), day, at.Format("15:04:05"), saved.AttendanceID)
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <id> [time]",
	Short: "Correct a record's time or status",
	Long: `Correct an existing record. The record is looked up on --day (today by default).
Without a time, or with -i, opens the entry form.

Examples:
  punch edit 3f1c... 08:55
  punch edit 3f1c... 17:40 --status out --day 2026-10-14
  punch edit 3f1c... -i`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		id, _, err := a.employee(ctx)
		if err != nil {
			return err
		}
		day, err := dayFlag(cmd, a)
		if err != nil {
			return err
		}
		existing, err := findRecord(ctx, a, id, day, args[0])
		if err != nil {
			return err
		}

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive || len(args) == 1 {
			return tui.RunEntryForm(ctx, a.svc, id, day, &existing)
		}

		at, err := parser.ParseClock(args[1], day, a.loc)
		if err != nil {
			return err
		}
		status := existing.Status
		if cmd.Flags().Changed("status") {
			statusFlag, _ := cmd.Flags().GetString("status")
			if status, err = parser.ParseStatus(statusFlag); err != nil {
				return err
			}
		}

		saved, err := a.svc.Submit(ctx, timesheet.Proposal{EmployeeID: id, At: at, Status: status, Editing: &existing}, day)
		if err != nil {
			return err
		}
		fmt.Printf("✏️  Updated %s: check-%s at %s\n", saved.AttendanceID, saved.StatusLabel(), at.Format("15:04:05"))
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a record",
	Long: `Delete a record from --day (today by default). Asks for confirmation unless --yes is given.`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		id, _, err := a.employee(ctx)
		if err != nil {
			return err
		}
		day, err := dayFlag(cmd, a)
		if err != nil {
			return err
		}
		existing, err := findRecord(ctx, a, id, day, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			question := fmt.Sprintf("Delete check-%s at %s %s?", existing.StatusLabel(), day, existing.Time(a.loc).Format("15:04:05"))
			if !confirm(cmd.InOrStdin(), question) {
				fmt.Println("❌ Cancelled.")
				return nil
			}
		}

		if err := a.svc.Delete(ctx, id, day, existing.AttendanceID); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted %s\n", existing.AttendanceID)
		return nil
	}),
}

func dayFlag(cmd *cobra.Command, a *app) (timesheet.Day, error) {
	s, _ := cmd.Flags().GetString("day")
	if s == "" {
		return a.svc.Today(), nil
	}
	return timesheet.ParseDay(s)
}

// findRecord looks the record up in the day view so local and remote stores
// behave the same. A unique id prefix is accepted.
func findRecord(ctx context.Context, a *app, employeeID string, day timesheet.Day, key string) (models.AttendanceEvent, error) {
	view, err := a.svc.Day(ctx, employeeID, day)
	if err != nil {
		return models.AttendanceEvent{}, err
	}
	if ev, ok := view.Find(key); ok {
		return ev, nil
	}

	var matches []models.AttendanceEvent
	for _, ev := range view.Events {
		if strings.HasPrefix(ev.AttendanceID, key) {
			matches = append(matches, ev)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.AttendanceEvent{}, fmt.Errorf("no record %q on %s", key, day)
	default:
		return models.AttendanceEvent{}, fmt.Errorf("%q matches %d records on %s, use more of the id", key, len(matches), day)
	}
}

// confirm asks a yes/no question on stdout; anything but y/yes is no
func confirm(in io.Reader, question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func init() {
	addCmd.Flags().StringP("status", "s", "", "in or out")
	addCmd.Flags().StringP("day", "d", "", "day of the entry (YYYY-MM-DD, default today)")
	addCmd.Flags().BoolP("interactive", "i", false, "Open the entry form")

	editCmd.Flags().StringP("status", "s", "", "change to in or out")
	editCmd.Flags().StringP("day", "d", "", "day of the record (YYYY-MM-DD, default today)")
	editCmd.Flags().BoolP("interactive", "i", false, "Open the entry form")

	rmCmd.Flags().StringP("day", "d", "", "day of the record (YYYY-MM-DD, default today)")
	rmCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation")
}
