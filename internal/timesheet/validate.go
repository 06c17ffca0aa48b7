package timesheet

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/balkashynov/punch/internal/models"
)

// Rule identifies which temporal constraint a proposal broke
type Rule string

const (
	RuleFuture         Rule = "future"
	RuleOutsideDay     Rule = "outside_day"
	RuleDuplicate      Rule = "duplicate"
	RuleBeforeDayStart Rule = "before_day_start"
	RuleAfterCheckOut  Rule = "after_check_out"
	RuleOutOfOrder     Rule = "out_of_order"
	RuleBeforeCheckIn  Rule = "before_check_in"
	RuleOverlapsNext   Rule = "overlaps_next_check_in"
	RuleBeforePrevOut  Rule = "before_previous_check_out"
	RuleTooShort       Rule = "session_too_short"
	RuleTooLong        Rule = "session_too_long"
	RuleDoubleCheckIn  Rule = "double_check_in"
	RuleNoOpenCheckIn  Rule = "no_open_check_in"
)

type Violation struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every violation found, in rule order
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "invalid attendance entry: " + strings.Join(msgs, "; ")
}

// Has reports whether rule was violated
func (e *ValidationError) Has(rule Rule) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// Messages returns the human-readable violation list
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return msgs
}

// Proposal is a new or edited event. Editing is nil when creating.
type Proposal struct {
	EmployeeID string
	At         time.Time
	Status     bool
	Editing    *models.AttendanceEvent
}

// Event turns an accepted proposal into the record to persist
func (p Proposal) Event() models.AttendanceEvent {
	ev := models.AttendanceEvent{
		EmployeeID: p.EmployeeID,
		TimeStamp:  p.At.UnixMilli(),
		Status:     p.Status,
	}
	if p.Editing != nil {
		ev.AttendanceID = p.Editing.AttendanceID
		if ev.EmployeeID == "" {
			ev.EmployeeID = p.Editing.EmployeeID
		}
	}
	return ev
}

// Validator checks proposals against the rest of the day's events
type Validator struct {
	Location   *time.Location
	MinSession time.Duration
	MaxSession time.Duration
}

func DefaultValidator(loc *time.Location) Validator {
	return Validator{Location: loc, MinSession: time.Minute, MaxSession: 24 * time.Hour}
}

type checker struct {
	v    Validator
	loc  *time.Location
	ts   int64
	errs []Violation
}

func (c *checker) add(rule Rule, format string, args ...any) {
	c.errs = append(c.errs, Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) clock(ev models.AttendanceEvent) string {
	return ev.Time(c.loc).Format("15:04:05")
}

// Validate returns nil when p may be persisted, otherwise a *ValidationError
// listing every broken rule. events is the full day for the employee,
// including the record being edited.
func (v Validator) Validate(p Proposal, events []models.AttendanceEvent, day Day, now time.Time) error {
	loc := locOrLocal(v.Location)
	c := &checker{v: v, loc: loc, ts: p.At.UnixMilli()}

	if c.ts > now.UnixMilli() {
		c.add(RuleFuture, "cannot set time in the future")
	}
	if !day.Contains(p.At, loc) {
		c.add(RuleOutsideDay, "time must fall within %s (00:00:00 to 23:59:59)", day)
	}

	seq := v.sequence(p, events)
	editIdx := -1
	if p.Editing != nil && p.Editing.AttendanceID != "" {
		editIdx = slices.IndexFunc(seq, func(ev models.AttendanceEvent) bool {
			return ev.AttendanceID == p.Editing.AttendanceID
		})
	}

	for i, ev := range seq {
		if i != editIdx && ev.TimeStamp == c.ts {
			c.add(RuleDuplicate, "another record already exists at %s", c.clock(ev))
			break
		}
	}

	if p.Status && c.ts < day.Start(loc).UnixMilli() {
		c.add(RuleBeforeDayStart, "check-in cannot be before the start of %s", day)
	}

	if editIdx >= 0 {
		var prev, next *models.AttendanceEvent
		if editIdx > 0 {
			prev = &seq[editIdx-1]
		}
		if editIdx < len(seq)-1 {
			next = &seq[editIdx+1]
		}
		if p.Status != p.Editing.Status {
			c.flipFits(p.Status, prev, next)
		}
		if p.Status {
			c.editCheckIn(prev, next)
		} else {
			c.editCheckOut(prev, next)
		}
	} else {
		var last *models.AttendanceEvent
		if len(seq) > 0 {
			last = &seq[len(seq)-1]
		}
		if p.Status {
			c.createCheckIn(last)
		} else {
			c.createCheckOut(last)
		}
	}

	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Violations: c.errs}
}

// sequence is the employee's events sorted by time
func (v Validator) sequence(p Proposal, events []models.AttendanceEvent) []models.AttendanceEvent {
	employee := p.EmployeeID
	if employee == "" && p.Editing != nil {
		employee = p.Editing.EmployeeID
	}
	seq := make([]models.AttendanceEvent, 0, len(events))
	for _, ev := range events {
		if employee != "" && ev.EmployeeID != "" && ev.EmployeeID != employee {
			continue
		}
		seq = append(seq, ev)
	}
	return sortedByTime(seq)
}

// flipFits checks that a record whose status changes still alternates with
// its neighbours. Ordering checks keep the neighbours fixed.
func (c *checker) flipFits(checkIn bool, prev, next *models.AttendanceEvent) {
	if !checkIn {
		if prev == nil || !prev.Status {
			c.add(RuleNoOpenCheckIn, "no open check-in to close")
		}
		return
	}
	if prev != nil && prev.Status {
		c.add(RuleDoubleCheckIn, "already checked in at %s, check out first", c.clock(*prev))
	}
	if next != nil && next.Status {
		c.add(RuleDoubleCheckIn, "next record at %s is a check-in", c.clock(*next))
	}
}

func (c *checker) editCheckIn(prev, next *models.AttendanceEvent) {
	if next != nil && !next.Status && c.ts >= next.TimeStamp {
		c.add(RuleAfterCheckOut, "check-in must be before its check-out at %s", c.clock(*next))
	}
	if next != nil && next.Status && c.ts >= next.TimeStamp {
		c.add(RuleOutOfOrder, "check-in must be before the next record at %s", c.clock(*next))
	}
	if prev != nil && c.ts <= prev.TimeStamp {
		c.add(RuleOutOfOrder, "check-in must be after the previous record at %s", c.clock(*prev))
	}
	if next != nil && !next.Status && c.ts < next.TimeStamp {
		c.lengthBounds(next.TimeStamp - c.ts)
	}
}

func (c *checker) editCheckOut(prev, next *models.AttendanceEvent) {
	var in *models.AttendanceEvent
	if prev != nil && prev.Status {
		in = prev
	}

	if in != nil && c.ts <= in.TimeStamp {
		c.add(RuleBeforeCheckIn, "check-out must be after its check-in at %s", c.clock(*in))
	}
	if next != nil && next.Status && c.ts >= next.TimeStamp {
		c.add(RuleOverlapsNext, "check-out must be before the next check-in at %s", c.clock(*next))
	}
	if next != nil && !next.Status && c.ts >= next.TimeStamp {
		c.add(RuleOutOfOrder, "check-out must be before the next record at %s", c.clock(*next))
	}
	if prev != nil && !prev.Status && c.ts <= prev.TimeStamp {
		c.add(RuleBeforePrevOut, "check-out must be after the previous check-out at %s", c.clock(*prev))
	}
	if in != nil && c.ts > in.TimeStamp {
		c.sessionBounds(*in)
	}
}

func (c *checker) createCheckIn(last *models.AttendanceEvent) {
	if last == nil {
		return
	}
	if last.Status {
		c.add(RuleDoubleCheckIn, "already checked in at %s, check out first", c.clock(*last))
		return
	}
	if c.ts < last.TimeStamp {
		c.add(RuleOutOfOrder, "check-in must be after the last record at %s", c.clock(*last))
	}
}

func (c *checker) createCheckOut(last *models.AttendanceEvent) {
	if last == nil || !last.Status {
		c.add(RuleNoOpenCheckIn, "no open check-in to close")
		return
	}
	if c.ts <= last.TimeStamp {
		c.add(RuleBeforeCheckIn, "check-out must be after its check-in at %s", c.clock(*last))
		return
	}
	c.sessionBounds(*last)
}

func (c *checker) sessionBounds(in models.AttendanceEvent) {
	c.lengthBounds(c.ts - in.TimeStamp)
}

// lengthBounds checks a session of ms milliseconds against the configured limits
func (c *checker) lengthBounds(ms int64) {
	d := time.Duration(ms) * time.Millisecond
	if d < c.v.MinSession {
		c.add(RuleTooShort, "session must last at least %s", humanDuration(c.v.MinSession))
	}
	if c.v.MaxSession > 0 && d > c.v.MaxSession {
		c.add(RuleTooLong, "session cannot exceed %s", humanDuration(c.v.MaxSession))
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
