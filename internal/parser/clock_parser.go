package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/punch/internal/timesheet"
)

var (
	clockRegex    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(am|pm)?$`)
	dateTimeRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ t](.+)$`)
)

// ParseClock parses a wall-clock time on day in loc.
// Supported formats:
// - HH:MM or HH:MM:SS (e.g., "09:30", "17:05:30")
// - H:MM with am/pm (e.g., "9:30am", "5:05 pm")
// - YYYY-MM-DD HH:MM[:SS], which overrides day
// - now
func ParseClock(input string, day timesheet.Day, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("time is required")
	}
	if input == "now" {
		return time.Now().In(loc).Truncate(time.Second), nil
	}

	if matches := dateTimeRegex.FindStringSubmatch(input); len(matches) == 3 {
		d, err := timesheet.ParseDay(matches[1])
		if err != nil {
			return time.Time{}, err
		}
		day = d
		input = strings.TrimSpace(matches[2])
	}

	h, m, s, err := parseClockParts(input)
	if err != nil {
		return time.Time{}, err
	}
	if day.IsZero() {
		day = timesheet.Today(time.Now(), loc)
	}
	return time.Date(day.Year, day.Month, day.Dom, h, m, s, 0, loc), nil
}

// parseClockParts splits HH:MM[:SS][am|pm] into hour, minute, second
func parseClockParts(input string) (int, int, int, error) {
	matches := clockRegex.FindStringSubmatch(input)
	if len(matches) != 5 {
		return 0, 0, 0, fmt.Errorf("invalid time %q. Use: HH:MM, HH:MM:SS, 9:30am, or YYYY-MM-DD HH:MM", input)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	second := 0
	if matches[3] != "" {
		second, _ = strconv.Atoi(matches[3])
	}

	switch matches[4] {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, fmt.Errorf("hour must be between 1 and 12 with am/pm")
		}
		if hour == 12 {
			hour = 0
		}
		if matches[4] == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, 0, fmt.Errorf("hour must be between 0 and 23")
		}
	}
	if minute > 59 {
		return 0, 0, 0, fmt.Errorf("minute must be between 0 and 59")
	}
	if second > 59 {
		return 0, 0, 0, fmt.Errorf("second must be between 0 and 59")
	}
	return hour, minute, second, nil
}

// ParseStatus maps user input to a check-in (true) or check-out (false)
func ParseStatus(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "in", "i", "check-in", "checkin", "true", "1":
		return true, nil
	case "out", "o", "check-out", "checkout", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid status %q. Use: in or out", input)
	}
}

// FormatStatus is the inverse of ParseStatus
func FormatStatus(status bool) string {
	if status {
		return "in"
	}
	return "out"
}
