package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/timesheet"
	"github.com/balkashynov/punch/internal/tui"
)

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Check in now",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		return punch(cmd.Context(), a, true)
	}),
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Check out now",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		return punch(cmd.Context(), a, false)
	}),
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Check in when out, check out when in",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, _, err := a.employee(cmd.Context())
		if err != nil {
			return err
		}
		view, err := a.svc.Toggle(cmd.Context(), id)
		if err != nil {
			return err
		}
		printTransition(a, view)
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's worked time",
	Long: `Show today's worked time. Opens the live clock by default, where space toggles
check-in and check-out.

Examples:
  punch status           # Live clock
  punch status --no-ui   # Print once
  punch status --watch   # Print a ticking line until Ctrl+C`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		id, name, err := a.employee(ctx)
		if err != nil {
			return err
		}
		view, err := a.svc.Day(ctx, id, a.svc.Today())
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		watch, _ := cmd.Flags().GetBool("watch")
		switch {
		case watch:
			return watchClock(ctx, view.Timer)
		case noUI:
			printStatus(a, name, view)
			return nil
		default:
			return tui.RunClock(ctx, a.svc, id, name, view)
		}
	}),
}

// punch records the requested transition, refusing a no-op
func punch(ctx context.Context, a *app, checkIn bool) error {
	id, _, err := a.employee(ctx)
	if err != nil {
		return err
	}
	view, err := a.svc.Day(ctx, id, a.svc.Today())
	if err != nil {
		return err
	}
	if view.Timer.Running() == checkIn {
		if checkIn {
			return fmt.Errorf("already checked in since %s", view.Open().In.Time(a.loc).Format("15:04:05"))
		}
		return fmt.Errorf("not checked in")
	}

	view, err = a.svc.Toggle(ctx, id)
	if err != nil {
		return err
	}
	printTransition(a, view)
	return nil
}

func printTransition(a *app, view timesheet.DayView) {
	now := a.svc.Now()
	if open := view.Open(); open != nil {
		fmt.Printf("🟢 Checked in at %s\n", open.In.Time(a.loc).Format("15:04:05"))
	} else {
		fmt.Printf("⚪ Checked out at %s\n", now.In(a.loc).Format("15:04:05"))
	}
	fmt.Printf("Worked today: %s\n", view.Timer.Display(now))
}

func printStatus(a *app, name string, view timesheet.DayView) {
	now := a.svc.Now()
	if open := view.Open(); open != nil {
		fmt.Printf("🟢 %s is checked in since %s\n", name, open.In.Time(a.loc).Format("15:04:05"))
	} else {
		fmt.Printf("⚪ %s is checked out\n", name)
	}
	fmt.Printf("Worked today: %s (%d sessions)\n", view.Timer.Display(now), len(view.Sessions))
	if view.Malformed() {
		fmt.Println("⚠️  Today's records do not alternate; run 'punch day' to review them.")
	}
}

// watchClock prints the ticking display on one line until ctx is cancelled
func watchClock(ctx context.Context, state timesheet.TimerState) error {
	ticker := timesheet.NewTicker()
	ticker.Run(ctx, state, func(display string) {
		fmt.Printf("\r⏱️  %s ", display)
	})
	ticker.Wait()
	fmt.Println()
	return nil
}

func init() {
	statusCmd.Flags().Bool("no-ui", false, "Print status without the interactive clock")
	statusCmd.Flags().Bool("watch", false, "Print a live ticking line instead of the full-screen clock")
}
