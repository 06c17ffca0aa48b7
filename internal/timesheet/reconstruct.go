package timesheet

import (
	"cmp"
	"slices"
	"time"

	"github.com/balkashynov/punch/internal/models"
)

// Session is a check-in paired with its check-out. Out is nil while the
// employee is still checked in.
type Session struct {
	In  models.AttendanceEvent
	Out *models.AttendanceEvent
}

func (s Session) IsOpen() bool {
	return s.Out == nil
}

// Duration of the session; open sessions are measured up to now
func (s Session) Duration(now time.Time) time.Duration {
	end := now.UnixMilli()
	if s.Out != nil {
		end = s.Out.TimeStamp
	}
	if end < s.In.TimeStamp {
		return 0
	}
	return time.Duration(end-s.In.TimeStamp) * time.Millisecond
}

// Reconstruction is the derived view of one employee's day
type Reconstruction struct {
	Sessions []Session
	// Closed is the sum of all closed sessions
	Closed time.Duration
	// Orphans are check-outs with no pending check-in
	Orphans []models.AttendanceEvent
	// Superseded are check-ins overwritten by a later check-in before any check-out
	Superseded []models.AttendanceEvent
}

// Reconstruct pairs a day's events into sessions. The input order does not
// matter and the input slice is not modified.
func Reconstruct(events []models.AttendanceEvent) Reconstruction {
	sorted := sortedByTime(events)

	var r Reconstruction
	var pending *models.AttendanceEvent

	for i := range sorted {
		ev := sorted[i]
		if ev.Status {
			if pending != nil {
				r.Superseded = append(r.Superseded, *pending)
			}
			pending = &ev
			continue
		}
		if pending == nil {
			r.Orphans = append(r.Orphans, ev)
			continue
		}
		out := ev
		r.Sessions = append(r.Sessions, Session{In: *pending, Out: &out})
		r.Closed += time.Duration(out.TimeStamp-pending.TimeStamp) * time.Millisecond
		pending = nil
	}

	if pending != nil {
		r.Sessions = append(r.Sessions, Session{In: *pending})
	}
	return r
}

// Open returns the trailing open session, if any
func (r Reconstruction) Open() *Session {
	if len(r.Sessions) == 0 {
		return nil
	}
	last := r.Sessions[len(r.Sessions)-1]
	if !last.IsOpen() {
		return nil
	}
	return &last
}

// Total is the closed duration plus the running session measured at now
func (r Reconstruction) Total(now time.Time) time.Duration {
	total := r.Closed
	if open := r.Open(); open != nil {
		total += open.Duration(now)
	}
	return total
}

// Malformed reports whether the events did not strictly alternate
func (r Reconstruction) Malformed() bool {
	return len(r.Orphans) > 0 || len(r.Superseded) > 0
}

// sortedByTime returns a copy of events ordered by timestamp; ties keep input order
func sortedByTime(events []models.AttendanceEvent) []models.AttendanceEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b models.AttendanceEvent) int {
		return cmp.Compare(a.TimeStamp, b.TimeStamp)
	})
	return sorted
}
