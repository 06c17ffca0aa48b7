package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/punch/internal/db"
	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/timesheet"
)

type updateRequest struct {
	AttendanceID string `json:"attendanceId"`
	EmployeeID   string `json:"employeeId" binding:"required"`
	TimeStamp    int64  `json:"timeStamp" binding:"required"`
	Status       *bool  `json:"status" binding:"required"`
}

// attendanceForCaller answers { attendance: { name: [events] } }
func (s *Server) attendanceForCaller(c *gin.Context) {
	employee, ok := s.caller(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	events, err := s.store.EventsBetween(c.Request.Context(), employee.ID, from, to)
	if err != nil {
		s.internalError(c, "failed to load attendance", err)
		return
	}
	if events == nil {
		events = []models.AttendanceEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"attendance": gin.H{employee.Name: events},
	})
}

// attendanceForAll answers { name: { day: [events] } }
func (s *Server) attendanceForAll(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	byName, err := s.store.AttendanceBetween(c.Request.Context(), from, to)
	if err != nil {
		s.internalError(c, "failed to load attendance", err)
		return
	}
	c.JSON(http.StatusOK, byName)
}

func (s *Server) addAttendance(c *gin.Context) {
	next, err := strconv.ParseBool(c.Param("nextState"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nextState must be true or false"})
		return
	}
	employee, ok := s.caller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	now := s.store.Now()
	today := timesheet.Today(now, s.store.Location)
	events, err := s.store.FetchEventsForDay(ctx, employee.ID, today)
	if err != nil {
		s.internalError(c, "failed to load attendance", err)
		return
	}
	p := timesheet.Proposal{EmployeeID: employee.ID, At: now, Status: next}
	if err := s.validator.Validate(p, events, today, now); err != nil {
		s.rejected(c, err)
		return
	}

	if err := s.store.RecordToggle(ctx, employee.ID, next); err != nil {
		s.internalError(c, "failed to save attendance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) updateAttendance(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.AttendanceID = strings.TrimSpace(req.AttendanceID)

	ctx := c.Request.Context()
	if _, err := s.store.EmployeeByID(ctx, req.EmployeeID); err != nil {
		s.storeError(c, err)
		return
	}

	ev := models.AttendanceEvent{
		AttendanceID: req.AttendanceID,
		EmployeeID:   req.EmployeeID,
		TimeStamp:    req.TimeStamp,
		Status:       *req.Status,
	}
	p := timesheet.Proposal{
		EmployeeID: ev.EmployeeID,
		At:         ev.Time(s.store.Location),
		Status:     ev.Status,
	}
	day := timesheet.DayOf(p.At)

	if req.AttendanceID != "" {
		existing, err := s.store.EventByID(ctx, req.AttendanceID)
		if err != nil {
			s.storeError(c, err)
			return
		}
		p.Editing = existing
		day = timesheet.DayOf(existing.Time(s.store.Location))
	}

	events, err := s.store.FetchEventsForDay(ctx, req.EmployeeID, day)
	if err != nil {
		s.internalError(c, "failed to load attendance", err)
		return
	}
	if err := s.validator.Validate(p, events, day, s.store.Now()); err != nil {
		s.rejected(c, err)
		return
	}

	saved, err := s.store.CreateOrUpdateEvent(ctx, ev)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteAttendance(c *gin.Context) {
	id := strings.TrimSpace(c.Param("attendanceId"))
	if err := s.store.DeleteEvent(c.Request.Context(), id); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// caller resolves the X-Employee-Id header, writing the error response itself
func (s *Server) caller(c *gin.Context) (*models.Employee, bool) {
	id := strings.TrimSpace(c.GetHeader(EmployeeHeader))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": EmployeeHeader + " header required"})
		return nil, false
	}
	employee, err := s.store.EmployeeByID(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return nil, false
	}
	return employee, true
}

func dateRange(c *gin.Context) (timesheet.Day, timesheet.Day, bool) {
	from, err := timesheet.ParseDay(c.Query("fromDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fromDate: " + err.Error()})
		return timesheet.Day{}, timesheet.Day{}, false
	}
	to, err := timesheet.ParseDay(c.Query("toDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "toDate: " + err.Error()})
		return timesheet.Day{}, timesheet.Day{}, false
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "toDate is before fromDate"})
		return timesheet.Day{}, timesheet.Day{}, false
	}
	return from, to, true
}

func (s *Server) rejected(c *gin.Context, err error) {
	var verr *timesheet.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "violations": verr.Violations})
		return
	}
	s.internalError(c, "validation failed", err)
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrEmployeeNotFound), errors.Is(err, db.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.internalError(c, "storage error", err)
	}
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "detail": err.Error()})
}
