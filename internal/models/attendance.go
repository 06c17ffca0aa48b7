package models

import (
	"time"
)

// AttendanceEvent is a single check-in (Status true) or check-out (Status false)
type AttendanceEvent struct {
	AttendanceID string    `gorm:"primaryKey;size:36" json:"attendanceId,omitempty"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`

	EmployeeID string `gorm:"size:36;not null;index:idx_employee_time" json:"employeeId"`
	TimeStamp  int64  `gorm:"not null;index:idx_employee_time" json:"timeStamp"` // epoch milliseconds
	Status     bool   `json:"status"`
}

// Time returns the event instant in loc
func (e AttendanceEvent) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(e.TimeStamp).In(loc)
}

// IsCheckIn reports whether the event opens a session
func (e AttendanceEvent) IsCheckIn() bool {
	return e.Status
}

// StatusLabel is the human name of the event kind
func (e AttendanceEvent) StatusLabel() string {
	if e.Status {
		return "in"
	}
	return "out"
}
