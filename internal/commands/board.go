package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/punch/internal/timesheet"
	"github.com/balkashynov/punch/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show who is checked in",
	Long: `Show every employee's attendance for a day. Opens the searchable board by
default; --no-ui prints a table.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		day, err := dayFlag(cmd, a)
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if !noUI {
			return tui.RunBoard(ctx, a.svc, day)
		}

		rows, err := a.svc.Board(ctx, day)
		if err != nil {
			return err
		}
		renderBoardTable(a, day, rows)
		return nil
	}),
}

func renderBoardTable(a *app, day timesheet.Day, rows []timesheet.BoardRow) {
	if len(rows) == 0 {
		fmt.Println("No employees.")
		return
	}

	now := a.svc.Now()
	present := 0
	for _, r := range rows {
		if r.Present() {
			present++
		}
	}
	fmt.Printf("👥 %s · %d of %d checked in\n\n", day, present, len(rows))

	nameWidth := 20
	for _, r := range rows {
		nameWidth = max(nameWidth, min(len(r.Name), 40))
	}

	fmt.Printf("%-*s  %-6s  %-8s  %s\n", nameWidth, "Name", "Status", "Since", "Worked")
	fmt.Println(strings.Repeat("-", nameWidth) + "  ------  --------  --------")
	for _, r := range rows {
		name := r.Name
		if len(name) > nameWidth {
			name = name[:nameWidth-3] + "..."
		}
		status, since := "out", "-"
		if open := r.Open(); open != nil {
			status, since = "in", open.In.Time(a.loc).Format("15:04:05")
		}
		fmt.Printf("%-*s  %-6s  %-8s  %s\n", nameWidth, name, status, since, r.Timer.Display(now))
	}
}

func init() {
	boardCmd.Flags().Bool("no-ui", false, "Print a table instead of the interactive board")
	boardCmd.Flags().StringP("day", "d", "", "day to show (YYYY-MM-DD, default today)")
}
