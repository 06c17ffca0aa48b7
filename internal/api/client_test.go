package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/balkashynov/punch/internal/models"
	"github.com/balkashynov/punch/internal/timesheet"
)

var (
	testLoc = time.FixedZone("UTC+1", 60*60)
	testDay = timesheet.Day{Year: 2026, Month: time.October, Dom: 15}
)

func at(h, m int) int64 {
	return time.Date(2026, time.October, 15, h, m, 0, 0, testLoc).UnixMilli()
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", testLoc, 5*time.Second, log.New(io.Discard))
}

func TestFetchEventsForDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/getAttendanceBetweenForParticalurEmployee" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("fromDate") != "2026-10-15" || r.URL.Query().Get("toDate") != "2026-10-15" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get(EmployeeHeader) != "emp-1" {
			t.Errorf("missing employee header")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"attendance": map[string][]models.AttendanceEvent{
				"Ada": {
					{AttendanceID: "a", EmployeeID: "emp-1", TimeStamp: at(9, 0), Status: true},
					{AttendanceID: "x", EmployeeID: "emp-1", TimeStamp: at(9, 0) - 24*60*60*1000, Status: true},
				},
			},
		})
	})

	events, err := c.FetchEventsForDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("FetchEventsForDay failed: %v", err)
	}
	if len(events) != 1 || events[0].AttendanceID != "a" || !events[0].Status {
		t.Errorf("events = %+v, want only a", events)
	}
}

func TestFetchEventsForDay_ShapeErrorsMeanNoData(t *testing.T) {
	bodies := []string{`{}`, `{"attendance": {}}`, `{"attendance": []}`, `not json`}
	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		events, err := c.FetchEventsForDay(context.Background(), "emp-1", testDay)
		if err != nil {
			t.Errorf("body %q: unexpected error %v", body, err)
		}
		if len(events) != 0 {
			t.Errorf("body %q: events = %v, want none", body, events)
		}
	}
}

func TestCreateOrUpdateEvent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/updateAttendance" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var got map[string]any
		json.NewDecoder(r.Body).Decode(&got)
		if _, ok := got["attendanceId"]; ok {
			t.Errorf("create should omit attendanceId, got %v", got)
		}
		if got["status"] != false || got["employeeId"] != "emp-1" {
			t.Errorf("body = %v", got)
		}
		json.NewEncoder(w).Encode(models.AttendanceEvent{AttendanceID: "new", EmployeeID: "emp-1", TimeStamp: at(12, 0)})
	})

	saved, err := c.CreateOrUpdateEvent(context.Background(), models.AttendanceEvent{EmployeeID: "emp-1", TimeStamp: at(12, 0)})
	if err != nil {
		t.Fatalf("CreateOrUpdateEvent failed: %v", err)
	}
	if saved.AttendanceID != "new" {
		t.Errorf("AttendanceID = %q, want new", saved.AttendanceID)
	}
}

func TestCreateOrUpdateEvent_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error":      "invalid attendance entry",
			"violations": []timesheet.Violation{{Rule: timesheet.RuleDoubleCheckIn, Message: "already checked in"}},
		})
	})

	_, err := c.CreateOrUpdateEvent(context.Background(), models.AttendanceEvent{EmployeeID: "emp-1", TimeStamp: at(12, 0), Status: true})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422 StatusError", err)
	}
	var verr *timesheet.ValidationError
	if !errors.As(err, &verr) || !verr.Has(timesheet.RuleDoubleCheckIn) {
		t.Errorf("expected violations to unwrap, got %v", err)
	}
}

func TestDeleteAndToggle(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.EscapedPath()+" "+r.Header.Get(EmployeeHeader))
		io.WriteString(w, `{"status":"ok"}`)
	})
	ctx := context.Background()

	if err := c.DeleteEvent(ctx, "a b"); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if err := c.RecordToggle(ctx, "emp-1", true); err != nil {
		t.Fatalf("RecordToggle failed: %v", err)
	}
	want := []string{"DELETE /api/deleteAttendance/a%20b ", "POST /api/addAttendance/true emp-1"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %q, want %q", calls, want)
	}
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"attendance record not found"}`)
	})
	err := c.DeleteEvent(context.Background(), "missing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
	if statusErr.Unwrap() != nil {
		t.Errorf("404 should not unwrap to a validation error")
	}
}

func TestAttendanceBetween_NormalizesDayKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"Ada": {
				"2026-10-15T00:00:00.000Z": [{"attendanceId":"a","employeeId":"e1","timeStamp":1,"status":true}],
				"Thu 2026-10-16": [{"attendanceId":"b","employeeId":"e1","timeStamp":2,"status":false}],
				"totals": []
			},
			"Grace": {}
		}`)
	})

	got, err := c.AttendanceBetween(context.Background(), testDay, testDay.Next())
	if err != nil {
		t.Fatalf("AttendanceBetween failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 employees, got %v", got)
	}
	ada := got["Ada"]
	if len(ada) != 2 || len(ada[testDay]) != 1 || ada[testDay.Next()][0].AttendanceID != "b" {
		t.Errorf("Ada = %v", ada)
	}
}

func TestAttendanceBetween_BadPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[1,2,3]`)
	})
	got, err := c.AttendanceBetween(context.Background(), testDay, testDay)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v; want empty map and no error", got, err)
	}
}

func TestClient_ImplementsServiceInterfaces(t *testing.T) {
	var _ timesheet.EventStore = (*Client)(nil)
	var _ timesheet.Roster = (*Client)(nil)
}
