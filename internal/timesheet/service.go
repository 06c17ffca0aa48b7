package timesheet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/balkashynov/punch/internal/models"
)

var (
	// ErrNoEmployee is returned when an operation needs an employee and none was given
	ErrNoEmployee = errors.New("no employee selected, pass --employee or set employee_id in config")
	// ErrNoRoster is returned when the store cannot list all employees
	ErrNoRoster = errors.New("store does not support the attendance board")
)

// EventStore is the backend boundary. Implementations are the local
// database and the remote HTTP API.
type EventStore interface {
	FetchEventsForDay(ctx context.Context, employeeID string, day Day) ([]models.AttendanceEvent, error)
	// CreateOrUpdateEvent creates ev when AttendanceID is empty, otherwise updates it
	CreateOrUpdateEvent(ctx context.Context, ev models.AttendanceEvent) (models.AttendanceEvent, error)
	DeleteEvent(ctx context.Context, attendanceID string) error
	// RecordToggle records a check-in (next true) or check-out at the current time
	RecordToggle(ctx context.Context, employeeID string, next bool) error
}

// Roster lists every employee's events, keyed by employee name then day
type Roster interface {
	AttendanceBetween(ctx context.Context, from, to Day) (map[string]map[Day][]models.AttendanceEvent, error)
}

// DayView is one employee's day as derived from the store
type DayView struct {
	EmployeeID string
	Day        Day
	Events     []models.AttendanceEvent
	Reconstruction
	Timer TimerState
}

func newDayView(employeeID string, day Day, events []models.AttendanceEvent) DayView {
	rec := Reconstruct(events)
	return DayView{
		EmployeeID:     employeeID,
		Day:            day,
		Events:         sortedByTime(events),
		Reconstruction: rec,
		Timer:          TimerFrom(rec),
	}
}

// Find returns the event with the given id
func (v DayView) Find(attendanceID string) (models.AttendanceEvent, bool) {
	for _, ev := range v.Events {
		if ev.AttendanceID == attendanceID {
			return ev, true
		}
	}
	return models.AttendanceEvent{}, false
}

// BoardRow is one employee's status on the attendance board
type BoardRow struct {
	Name string
	Day  Day
	Reconstruction
	Timer TimerState
}

// Present reports whether the employee is currently checked in
func (r BoardRow) Present() bool {
	return r.Timer.Running()
}

type dayKey struct {
	employeeID string
	day        Day
}

func (k dayKey) String() string {
	return k.employeeID + "|" + k.day.String()
}

// Service validates and persists attendance edits and serves derived views.
// Writes are serialized and always validated against freshly fetched data.
type Service struct {
	store     EventStore
	roster    Roster
	validator Validator
	logger    *log.Logger
	now       func() time.Time

	writeMu      sync.Mutex
	group        singleflight.Group
	fetchTimeout time.Duration

	cacheMu sync.Mutex
	cache   map[dayKey][]models.AttendanceEvent
	gen     uint64
}

// DefaultFetchTimeout bounds a shared day fetch once no caller's context does
const DefaultFetchTimeout = 30 * time.Second

type Option func(*Service)

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithValidator(v Validator) Option {
	return func(s *Service) { s.validator = v }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func WithRoster(r Roster) Option {
	return func(s *Service) { s.roster = r }
}

// NewService wraps store. When store also implements Roster it backs the board.
func NewService(store EventStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: DefaultValidator(time.Local),
		logger:    log.Default(),
		now:       time.Now,
		cache:     make(map[dayKey][]models.AttendanceEvent),

		fetchTimeout: DefaultFetchTimeout,
	}
	if r, ok := store.(Roster); ok {
		s.roster = r
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location {
	return locOrLocal(s.validator.Location)
}

func (s *Service) Now() time.Time {
	return s.now()
}

// Today is the current local day
func (s *Service) Today() Day {
	return Today(s.now(), s.Location())
}

// Day returns the employee's day, reading through the cache
func (s *Service) Day(ctx context.Context, employeeID string, day Day) (DayView, error) {
	if employeeID == "" {
		return DayView{}, ErrNoEmployee
	}
	key := dayKey{employeeID, day}

	s.cacheMu.Lock()
	cached, ok := s.cache[key]
	s.cacheMu.Unlock()
	if ok {
		return newDayView(employeeID, day, cached), nil
	}

	// the shared fetch outlives any single caller; each caller stops waiting
	// on its own ctx
	ch := s.group.DoChan(key.String(), func() (any, error) {
		s.cacheMu.Lock()
		startGen := s.gen
		s.cacheMu.Unlock()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		events, err := s.fetch(fetchCtx, employeeID, day)
		if err != nil {
			return nil, err
		}

		s.cacheMu.Lock()
		if s.gen == startGen {
			s.cache[key] = events
		} else {
			s.logger.Debug("discarding stale fetch", "employee", employeeID, "day", day)
		}
		s.cacheMu.Unlock()
		return events, nil
	})

	select {
	case <-ctx.Done():
		return DayView{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return DayView{}, res.Err
		}
		return newDayView(employeeID, day, res.Val.([]models.AttendanceEvent)), nil
	}
}

// Range returns one view per day from..to inclusive
func (s *Service) Range(ctx context.Context, employeeID string, from, to Day) ([]DayView, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}
	var views []DayView
	for d := from; !to.Before(d); d = d.Next() {
		v, err := s.Day(ctx, employeeID, d)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Submit validates p against the latest stored day and persists it
func (s *Service) Submit(ctx context.Context, p Proposal, day Day) (models.AttendanceEvent, error) {
	if p.EmployeeID == "" && p.Editing != nil {
		p.EmployeeID = p.Editing.EmployeeID
	}
	if p.EmployeeID == "" {
		return models.AttendanceEvent{}, ErrNoEmployee
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	events, err := s.fetch(ctx, p.EmployeeID, day)
	if err != nil {
		return models.AttendanceEvent{}, err
	}
	if err := s.validator.Validate(p, events, day, s.now()); err != nil {
		return models.AttendanceEvent{}, err
	}

	saved, err := s.store.CreateOrUpdateEvent(ctx, p.Event())
	s.invalidate(dayKey{p.EmployeeID, day})
	if err != nil {
		s.logger.Error("persisting attendance failed", "employee", p.EmployeeID, "day", day, "err", err)
		return models.AttendanceEvent{}, fmt.Errorf("failed to save attendance: %w", err)
	}
	s.logger.Debug("attendance saved", "attendanceId", saved.AttendanceID, "status", saved.StatusLabel(), "at", saved.Time(s.Location()).Format(time.DateTime))
	return saved, nil
}

// Delete removes one event. Callers confirm with the user first.
func (s *Service) Delete(ctx context.Context, employeeID string, day Day, attendanceID string) error {
	if strings.TrimSpace(attendanceID) == "" {
		return fmt.Errorf("attendance id is required")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.store.DeleteEvent(ctx, attendanceID)
	s.invalidate(dayKey{employeeID, day})
	if err != nil {
		s.logger.Error("deleting attendance failed", "attendanceId", attendanceID, "err", err)
		return fmt.Errorf("failed to delete attendance %s: %w", attendanceID, err)
	}
	s.logger.Debug("attendance deleted", "attendanceId", attendanceID)
	return nil
}

// Toggle checks the employee in when idle and out when running
func (s *Service) Toggle(ctx context.Context, employeeID string) (DayView, error) {
	if employeeID == "" {
		return DayView{}, ErrNoEmployee
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	today := Today(now, s.Location())
	events, err := s.fetch(ctx, employeeID, today)
	if err != nil {
		return DayView{}, err
	}
	next := Reconstruct(events).Open() == nil

	p := Proposal{EmployeeID: employeeID, At: now, Status: next}
	if err := s.validator.Validate(p, events, today, now); err != nil {
		return DayView{}, err
	}

	err = s.store.RecordToggle(ctx, employeeID, next)
	s.invalidate(dayKey{employeeID, today})
	if err != nil {
		s.logger.Error("recording toggle failed", "employee", employeeID, "next", next, "err", err)
		return DayView{}, fmt.Errorf("failed to record check-%s: %w", map[bool]string{true: "in", false: "out"}[next], err)
	}

	events, err = s.fetch(ctx, employeeID, today)
	if err != nil {
		return DayView{}, err
	}
	return newDayView(employeeID, today, events), nil
}

// Board returns every employee's status for day, sorted by name
func (s *Service) Board(ctx context.Context, day Day) ([]BoardRow, error) {
	if s.roster == nil {
		return nil, ErrNoRoster
	}
	byName, err := s.roster.AttendanceBetween(ctx, day, day)
	if err != nil {
		s.logger.Error("loading attendance board failed", "day", day, "err", err)
		return nil, fmt.Errorf("failed to load attendance board: %w", err)
	}

	rows := make([]BoardRow, 0, len(byName))
	for name, days := range byName {
		rec := Reconstruct(days[day])
		rows = append(rows, BoardRow{Name: name, Day: day, Reconstruction: rec, Timer: TimerFrom(rec)})
	}
	slices.SortFunc(rows, func(a, b BoardRow) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return rows, nil
}

func (s *Service) fetch(ctx context.Context, employeeID string, day Day) ([]models.AttendanceEvent, error) {
	events, err := s.store.FetchEventsForDay(ctx, employeeID, day)
	if err != nil {
		s.logger.Error("fetching attendance failed", "employee", employeeID, "day", day, "err", err)
		return nil, fmt.Errorf("failed to load attendance for %s: %w", day, err)
	}
	rec := Reconstruct(events)
	if rec.Malformed() {
		s.logger.Warn("attendance does not alternate", "employee", employeeID, "day", day,
			"orphanCheckOuts", len(rec.Orphans), "supersededCheckIns", len(rec.Superseded))
	}
	return events, nil
}

func (s *Service) invalidate(key dayKey) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen++
	delete(s.cache, key)
}
