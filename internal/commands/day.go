package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/timesheet"
)

var dayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "List a day's records and sessions",
	Long: `List the check-ins and check-outs of a day (today by default), the sessions
they pair into and the total worked time. Record ids are what edit and rm take.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		id, name, err := a.employee(ctx)
		if err != nil {
			return err
		}
		day := a.svc.Today()
		if len(args) == 1 {
			if day, err = timesheet.ParseDay(args[0]); err != nil {
				return err
			}
		}

		view, err := a.svc.Day(ctx, id, day)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return renderDayJSON(a, name, view)
		}
		renderDayTable(a, name, view)
		return nil
	}),
}

func renderDayJSON(a *app, name string, view timesheet.DayView) error {
	type jsonSession struct {
		In      string `json:"in"`
		Out     string `json:"out,omitempty"`
		Seconds int64  `json:"seconds"`
	}
	type jsonEvent struct {
		ID     string `json:"attendanceId"`
		Time   string `json:"time"`
		Status string `json:"status"`
	}
	type dayResult struct {
		Employee string        `json:"employee"`
		Day      timesheet.Day `json:"day"`
		Total    string        `json:"total"`
		Running  bool          `json:"running"`
		Events   []jsonEvent   `json:"events"`
		Sessions []jsonSession `json:"sessions"`
	}

	now := a.svc.Now()
	result := dayResult{
		Employee: name,
		Day:      view.Day,
		Total:    view.Timer.Display(now),
		Running:  view.Timer.Running(),
		Events:   []jsonEvent{},
		Sessions: []jsonSession{},
	}
	for _, ev := range view.Events {
		result.Events = append(result.Events, jsonEvent{
			ID:     ev.AttendanceID,
			Time:   ev.Time(a.loc).Format(time.RFC3339),
			Status: ev.StatusLabel(),
		})
	}
	for _, s := range view.Sessions {
		js := jsonSession{
			In:      s.In.Time(a.loc).Format(time.RFC3339),
			Seconds: int64(s.Duration(now) / time.Second),
		}
		if s.Out != nil {
			js.Out = s.Out.Time(a.loc).Format(time.RFC3339)
		}
		result.Sessions = append(result.Sessions, js)
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

func renderDayTable(a *app, name string, view timesheet.DayView) {
	now := a.svc.Now()
	fmt.Printf("📅 %s · %s %s\n\n", name, view.Day.Weekday().String()[:3], view.Day)

	if len(view.Events) == 0 {
		fmt.Println("No records.")
		return
	}

	fmt.Printf("%-36s  %-8s  %s\n", "ID", "TIME", "STATUS")
	fmt.Println(strings.Repeat("-", 36) + "  " + strings.Repeat("-", 8) + "  " + strings.Repeat("-", 6))
	for _, ev := range view.Events {
		fmt.Printf("%-36s  %-8s  %s\n", ev.AttendanceID, ev.Time(a.loc).Format("15:04:05"), ev.StatusLabel())
	}

	fmt.Println("\nSessions:")
	for _, s := range view.Sessions {
		out := "(open)"
		if s.Out != nil {
			out = s.Out.Time(a.loc).Format("15:04:05")
		}
		fmt.Printf("  %s → %-8s  %s\n",
			s.In.Time(a.loc).Format("15:04:05"), out,
			timesheet.FormatClock(int64(s.Duration(now)/time.Second)))
	}
	fmt.Printf("\nTotal: %s\n", view.Timer.Display(now))

	for _, ev := range view.Orphans {
		fmt.Printf("⚠️  Check-out at %s has no check-in\n", ev.Time(a.loc).Format("15:04:05"))
	}
	for _, ev := range view.Superseded {
		fmt.Printf("⚠️  Check-in at %s was never checked out\n", ev.Time(a.loc).Format("15:04:05"))
	}
}

func init() {
	dayCmd.Flags().Bool("json", false, "Output as JSON")
}
