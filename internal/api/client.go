package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/timesheet"
)

// EmployeeHeader carries the caller identity on caller-scoped endpoints
const EmployeeHeader = "X-Employee-Id"

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Violations []timesheet.Violation
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap exposes server-side rule violations as a *timesheet.ValidationError
func (e *StatusError) Unwrap() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return &timesheet.ValidationError{Violations: e.Violations}
}

type errorBody struct {
	Error      string                `json:"error"`
	Violations []timesheet.Violation `json:"violations"`
}

// Client talks to the attendance REST API
type Client struct {
	BaseURL  string
	Location *time.Location
	HTTP     *http.Client
	Logger   *log.Logger
}

func NewClient(baseURL string, loc *time.Location, timeout time.Duration, logger *log.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Location: loc,
		Logger:   logger,
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// FetchEventsForDay reads the caller's events. The response is keyed by
// employee name; the first (alphabetical) entry is used. A missing or
// malformed attendance object is treated as no data.
func (c *Client) FetchEventsForDay(ctx context.Context, employeeID string, day timesheet.Day) ([]models.AttendanceEvent, error) {
	q := url.Values{}
	q.Set("fromDate", day.String())
	q.Set("toDate", day.String())

	body, err := c.do(ctx, http.MethodGet, "getAttendanceBetweenForParticalurEmployee", q, employeeID, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Attendance map[string][]models.AttendanceEvent `json:"attendance"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.Logger.Warn("unexpected attendance payload, treating as empty", "err", err)
		return []models.AttendanceEvent{}, nil
	}
	if len(payload.Attendance) == 0 {
		return []models.AttendanceEvent{}, nil
	}

	names := make([]string, 0, len(payload.Attendance))
	for name := range payload.Attendance {
		names = append(names, name)
	}
	slices.Sort(names)

	events := make([]models.AttendanceEvent, 0, len(payload.Attendance[names[0]]))
	for _, ev := range payload.Attendance[names[0]] {
		if day.Contains(ev.Time(c.Location), c.Location) {
			events = append(events, ev)
		}
	}
	return events, nil
}

// CreateOrUpdateEvent PUTs ev; an empty AttendanceID creates
func (c *Client) CreateOrUpdateEvent(ctx context.Context, ev models.AttendanceEvent) (models.AttendanceEvent, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return models.AttendanceEvent{}, err
	}
	body, err := c.do(ctx, http.MethodPut, "updateAttendance", nil, ev.EmployeeID, payload)
	if err != nil {
		return models.AttendanceEvent{}, err
	}

	var saved models.AttendanceEvent
	if err := json.Unmarshal(body, &saved); err != nil || saved.AttendanceID == "" {
		// backend confirmed without echoing the record
		return ev, nil
	}
	return saved, nil
}

func (c *Client) DeleteEvent(ctx context.Context, attendanceID string) error {
	_, err := c.do(ctx, http.MethodDelete, "deleteAttendance/"+url.PathEscape(attendanceID), nil, "", nil)
	return err
}

func (c *Client) RecordToggle(ctx context.Context, employeeID string, next bool) error {
	_, err := c.do(ctx, http.MethodPost, "addAttendance/"+strconv.FormatBool(next), nil, employeeID, nil)
	return err
}

// AttendanceBetween reads every employee's events. Day keys are matched by
// the date they contain; keys without a date are dropped.
func (c *Client) AttendanceBetween(ctx context.Context, from, to timesheet.Day) (map[string]map[timesheet.Day][]models.AttendanceEvent, error) {
	q := url.Values{}
	q.Set("fromDate", from.String())
	q.Set("toDate", to.String())

	body, err := c.do(ctx, http.MethodGet, "getAttendanceBetween", q, "", nil)
	if err != nil {
		return nil, err
	}
	return c.normalizeRoster(body), nil
}

func (c *Client) normalizeRoster(body []byte) map[string]map[timesheet.Day][]models.AttendanceEvent {
	result := make(map[string]map[timesheet.Day][]models.AttendanceEvent)

	var raw map[string]map[string][]models.AttendanceEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		c.Logger.Warn("unexpected attendance board payload, treating as empty", "err", err)
		return result
	}
	for name, days := range raw {
		byDay := make(map[timesheet.Day][]models.AttendanceEvent, len(days))
		for key, events := range days {
			day, ok := timesheet.FindDay(key)
			if !ok {
				c.Logger.Debug("skipping attendance key without a date", "employee", name, "key", key)
				continue
			}
			byDay[day] = append(byDay[day], events...)
		}
		result[name] = byDay
	}
	return result
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, employeeID string, payload []byte) ([]byte, error) {
	u := c.BaseURL + "/" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if employeeID != "" {
		req.Header.Set(EmployeeHeader, employeeID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			statusErr.Message = eb.Error
			statusErr.Violations = eb.Violations
		}
		return nil, statusErr
	}
	c.Logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode)
	return body, nil
}
