package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show help for punch or one command",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			target, _, err := rootCmd.Find(args)
			if err != nil {
				return err
			}
			return target.Help()
		}
		showCustomHelp()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("punch %s (commit %s, built %s)\n", version, commit, date)
	},
}

func showCustomHelp() {
	fmt.Print(`
█▀█ █ █ █▄ █ █▀▀ █ █
█▀▀ █▄█ █ ▀█ █▄▄ █▀█

punch - attendance clock and timesheet

CLOCK:

  in                      Check in now
  out                     Check out now
  toggle                  Check in when out, out when in
  status                  Live clock for today (space toggles)
    --no-ui               Print once
    --watch               Ticking line until Ctrl+C

RECORDS:

  day [YYYY-MM-DD]        Records, sessions and total for a day
    --json                JSON output

  add [time]              Add a missed check-in or check-out
    -s, --status          in | out (required without -i)
    -d, --day             Day of the entry (default today)
    -i, --interactive     Open the entry form

    Time formats:
      09:30  17:05:30  9:30am  "2026-10-14 17:30"  now

  edit <id> [time]        Correct a record (id prefix is fine)
    -s, --status          Change to in | out
    -d, --day             Day the record is on (default today)
    -i, --interactive     Open the entry form (ctrl+d deletes)

  rm <id>                 Delete a record
    -d, --day             Day the record is on (default today)
    -y, --yes             Skip the confirmation

REPORTS:

  week                    Worked time per day, Monday to Sunday
    --of                  Any day in the week to show

  board                   Who is checked in (/ searches)
    --no-ui               Print a table
    -d, --day             Day to show

ADMIN:

  employee add <name>     Register an employee (local store)
  employee ls             List employees
  serve                   Serve the attendance API from the local store
    --listen              Address (default :8080)

GLOBAL FLAGS:

  --config <path>         Config file (default ~/.punch/config.toml)
  -e, --employee <id>     Act for this employee
  --remote                Use the remote attendance API

Entries are checked before they are saved: no future times, no overlapping
or out-of-order sessions, sessions between 1 minute and 24 hours by default.

`)
}
