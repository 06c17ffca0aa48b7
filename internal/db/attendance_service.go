package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/timesheet"
)

// FetchEventsForDay returns the employee's events on the local day, oldest first
func (s *Store) FetchEventsForDay(ctx context.Context, employeeID string, day timesheet.Day) ([]models.AttendanceEvent, error) {
	return s.EventsBetween(ctx, employeeID, day, day)
}

// EventsBetween returns the employee's events from the start of from to the end of to
func (s *Store) EventsBetween(ctx context.Context, employeeID string, from, to timesheet.Day) ([]models.AttendanceEvent, error) {
	var events []models.AttendanceEvent
	err := s.DB.WithContext(ctx).
		Where("employee_id = ? AND time_stamp >= ? AND time_stamp <= ?",
			employeeID, from.Start(s.Location).UnixMilli(), to.End(s.Location).UnixMilli()).
		Order("time_stamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CreateOrUpdateEvent inserts ev when it has no id, otherwise updates the stored record
func (s *Store) CreateOrUpdateEvent(ctx context.Context, ev models.AttendanceEvent) (models.AttendanceEvent, error) {
	if _, err := s.EmployeeByID(ctx, ev.EmployeeID); err != nil {
		return models.AttendanceEvent{}, err
	}

	if ev.AttendanceID == "" {
		ev.AttendanceID = uuid.NewString()
		if err := s.DB.WithContext(ctx).Create(&ev).Error; err != nil {
			return models.AttendanceEvent{}, err
		}
		return ev, nil
	}

	var existing models.AttendanceEvent
	err := s.DB.WithContext(ctx).First(&existing, "attendance_id = ?", ev.AttendanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AttendanceEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, ev.AttendanceID)
	}
	if err != nil {
		return models.AttendanceEvent{}, err
	}

	// map form so a false status is written
	err = s.DB.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"employee_id": ev.EmployeeID,
		"time_stamp":  ev.TimeStamp,
		"status":      ev.Status,
	}).Error
	if err != nil {
		return models.AttendanceEvent{}, err
	}

	var updated models.AttendanceEvent
	if err := s.DB.WithContext(ctx).First(&updated, "attendance_id = ?", ev.AttendanceID).Error; err != nil {
		return models.AttendanceEvent{}, err
	}
	return updated, nil
}

// DeleteEvent removes one record
func (s *Store) DeleteEvent(ctx context.Context, attendanceID string) error {
	res := s.DB.WithContext(ctx).Where("attendance_id = ?", attendanceID).Delete(&models.AttendanceEvent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, attendanceID)
	}
	return nil
}

// RecordToggle stores a check-in or check-out at the current time
func (s *Store) RecordToggle(ctx context.Context, employeeID string, next bool) error {
	_, err := s.CreateOrUpdateEvent(ctx, models.AttendanceEvent{
		EmployeeID: employeeID,
		TimeStamp:  s.Now().UnixMilli(),
		Status:     next,
	})
	return err
}

// AttendanceBetween groups every employee's events by name and local day.
// Employees without events in the range are present with an empty map.
func (s *Store) AttendanceBetween(ctx context.Context, from, to timesheet.Day) (map[string]map[timesheet.Day][]models.AttendanceEvent, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	var events []models.AttendanceEvent
	err = s.DB.WithContext(ctx).
		Where("time_stamp >= ? AND time_stamp <= ?", from.Start(s.Location).UnixMilli(), to.End(s.Location).UnixMilli()).
		Order("time_stamp ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(employees))
	result := make(map[string]map[timesheet.Day][]models.AttendanceEvent, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
		result[e.Name] = make(map[timesheet.Day][]models.AttendanceEvent)
	}
	for _, ev := range events {
		name, ok := names[ev.EmployeeID]
		if !ok {
			continue
		}
		day := timesheet.DayOf(ev.Time(s.Location))
		result[name][day] = append(result[name][day], ev)
	}
	return result, nil
}

// EventByID retrieves one record
func (s *Store) EventByID(ctx context.Context, attendanceID string) (*models.AttendanceEvent, error) {
	var ev models.AttendanceEvent
	err := s.DB.WithContext(ctx).First(&ev, "attendance_id = ?", attendanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, attendanceID)
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
