package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/timesheet"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show worked time per day for a week",
	Long: `Show the worked time for each day of a calendar week (Monday to Sunday).

Example output:
  Day              Sessions      Worked
  Mon 2026-10-12          2     7:45:10
  Tue 2026-10-13          1     8:02:00
  ...
  Total                   3    15:47:10`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		id, name, err := a.employee(ctx)
		if err != nil {
			return err
		}

		day := a.svc.Today()
		if of, _ := cmd.Flags().GetString("of"); of != "" {
			if day, err = timesheet.ParseDay(of); err != nil {
				return err
			}
		}
		start := timesheet.WeekStart(day)
		end := start
		for range 6 {
			end = end.Next()
		}

		views, err := a.svc.Range(ctx, id, start, end)
		if err != nil {
			return fmt.Errorf("failed to load week: %w", err)
		}

		fmt.Printf("🗓️  %s · week of %s\n\n", name, start)
		displayWeek(views, a.svc.Now())
		return nil
	}),
}

// displayWeek prints one row per day; days without records are dashed out
func displayWeek(views []timesheet.DayView, now time.Time) {
	const dayWidth = 16

	fmt.Printf("%-*s  %8s  %10s\n", dayWidth, "Day", "Sessions", "Worked")
	fmt.Println(strings.Repeat("-", dayWidth) + "  " + strings.Repeat("-", 8) + "  " + strings.Repeat("-", 10))

	var total int64
	sessions := 0
	for _, v := range views {
		label := fmt.Sprintf("%s %s", v.Day.Weekday().String()[:3], v.Day)
		if len(v.Events) == 0 {
			fmt.Printf("%-*s  %8s  %10s\n", dayWidth, label, "-", "-")
			continue
		}

		seconds := v.Timer.Seconds(now)
		total += seconds
		sessions += len(v.Sessions)

		marker := ""
		if v.Timer.Running() {
			marker = " ●"
		} else if v.Malformed() {
			marker = " ⚠"
		}
		fmt.Printf("%-*s  %8d  %10s%s\n", dayWidth, label, len(v.Sessions), timesheet.FormatClock(seconds), marker)
	}

	fmt.Println(strings.Repeat("-", dayWidth) + "  " + strings.Repeat("-", 8) + "  " + strings.Repeat("-", 10))
	fmt.Printf("%-*s  %8d  %10s\n", dayWidth, "Total", sessions, timesheet.FormatClock(total))
}

func init() {
	weekCmd.Flags().String("of", "", "any day in the week to show (YYYY-MM-DD, default today)")
}
