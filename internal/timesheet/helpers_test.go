package timesheet

import (
	"time"

	"github.com/balkashynov/punch/internal/models"
)

var testLoc = time.FixedZone("UTC+3", 3*60*60)

var testDay = Day{Year: 2026, Month: time.October, Dom: 15}

func clock(h, m, s int) time.Time {
	return time.Date(2026, time.October, 15, h, m, s, 0, testLoc)
}

func event(id string, at time.Time, status bool) models.AttendanceEvent {
	return models.AttendanceEvent{
		AttendanceID: id,
		EmployeeID:   "emp-1",
		TimeStamp:    at.UnixMilli(),
		Status:       status,
	}
}
