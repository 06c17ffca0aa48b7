package timesheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/balkashynov/punch/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	events   map[string]models.AttendanceEvent
	nextID   int
	fetches  int
	now      func() time.Time
	fetchErr error

	// gate, when set, blocks FetchEventsForDay until it is closed
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{events: make(map[string]models.AttendanceEvent), now: now}
}

func (f *fakeStore) put(ev models.AttendanceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.AttendanceID] = ev
}

func (f *fakeStore) FetchEventsForDay(ctx context.Context, employeeID string, day Day) ([]models.AttendanceEvent, error) {
	f.mu.Lock()
	f.fetches++
	err := f.fetchErr
	var out []models.AttendanceEvent
	for _, ev := range f.events {
		if ev.EmployeeID == employeeID && day.Contains(ev.Time(testLoc), testLoc) {
			out = append(out, ev)
		}
	}
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	// the snapshot above is what a slow backend would return
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) CreateOrUpdateEvent(ctx context.Context, ev models.AttendanceEvent) (models.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.AttendanceID == "" {
		f.nextID++
		ev.AttendanceID = fmt.Sprintf("gen-%d", f.nextID)
	}
	f.events[ev.AttendanceID] = ev
	return ev, nil
}

func (f *fakeStore) DeleteEvent(ctx context.Context, attendanceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[attendanceID]; !ok {
		return errors.New("not found")
	}
	delete(f.events, attendanceID)
	return nil
}

func (f *fakeStore) RecordToggle(ctx context.Context, employeeID string, next bool) error {
	_, err := f.CreateOrUpdateEvent(ctx, models.AttendanceEvent{
		EmployeeID: employeeID,
		TimeStamp:  f.now().UnixMilli(),
		Status:     next,
	})
	return err
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type fakeRoster struct {
	data map[string]map[Day][]models.AttendanceEvent
}

func (r fakeRoster) AttendanceBetween(ctx context.Context, from, to Day) (map[string]map[Day][]models.AttendanceEvent, error) {
	return r.data, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, start time.Time) (*Service, *fakeStore, *testClock) {
	t.Helper()
	clk := &testClock{now: start}
	store := newFakeStore(clk.Now)
	svc := NewService(store,
		WithValidator(DefaultValidator(testLoc)),
		WithClock(clk.Now),
		WithLogger(log.New(io.Discard)),
	)
	return svc, store, clk
}

func TestService_DayReadsThroughCache(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	store.put(event("a", clock(9, 0, 0), true))
	ctx := context.Background()

	v, err := svc.Day(ctx, "emp-1", testDay)
	if err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if len(v.Sessions) != 1 || !v.Timer.Running() {
		t.Errorf("expected one open session, got %+v", v.Sessions)
	}
	if _, err := svc.Day(ctx, "emp-1", testDay); err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if store.fetchCount() != 1 {
		t.Errorf("fetches = %d, want 1 (second read should hit cache)", store.fetchCount())
	}
}

func TestService_DayRequiresEmployee(t *testing.T) {
	svc, _, _ := newTestService(t, clock(14, 0, 0))
	if _, err := svc.Day(context.Background(), "", testDay); !errors.Is(err, ErrNoEmployee) {
		t.Errorf("err = %v, want ErrNoEmployee", err)
	}
}

func TestService_SubmitValidatesAgainstFreshData(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	ctx := context.Background()

	if _, err := svc.Day(ctx, "emp-1", testDay); err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	// written behind the cache's back
	store.put(event("a", clock(9, 0, 0), true))

	_, err := svc.Submit(ctx, propose(clock(10, 0, 0), true), testDay)
	mustViolate(t, err, RuleDoubleCheckIn)
}

func TestService_SubmitPersistsAndInvalidates(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	ctx := context.Background()
	store.put(event("a", clock(9, 0, 0), true))

	if _, err := svc.Day(ctx, "emp-1", testDay); err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	saved, err := svc.Submit(ctx, propose(clock(12, 0, 0), false), testDay)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if saved.AttendanceID == "" {
		t.Errorf("saved event has no id")
	}

	v, err := svc.Day(ctx, "emp-1", testDay)
	if err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if v.Closed != 3*time.Hour || v.Timer.Running() {
		t.Errorf("Closed = %v running = %v, want 3h and idle", v.Closed, v.Timer.Running())
	}
}

func TestService_SubmitEdit(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	ctx := context.Background()
	a := event("a", clock(9, 0, 0), true)
	b := event("b", clock(12, 0, 0), false)
	store.put(a)
	store.put(b)

	if _, err := svc.Submit(ctx, editOf(b, clock(11, 0, 0), false), testDay); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	v, _ := svc.Day(ctx, "emp-1", testDay)
	if len(v.Events) != 2 || v.Closed != 2*time.Hour {
		t.Errorf("events = %d closed = %v, want 2 and 2h", len(v.Events), v.Closed)
	}
}

func TestService_StaleFetchDoesNotRepopulateCache(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	ctx := context.Background()
	store.put(event("a", clock(9, 0, 0), true))

	store.mu.Lock()
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	store.mu.Unlock()

	done := make(chan DayView)
	go func() {
		v, _ := svc.Day(ctx, "emp-1", testDay)
		done <- v
	}()
	<-store.entered

	store.mu.Lock()
	gate := store.gate
	store.gate, store.entered = nil, nil
	store.mu.Unlock()

	// a write lands while the read is in flight
	if err := svc.Delete(ctx, "emp-1", testDay, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	close(gate)
	<-done

	v, err := svc.Day(ctx, "emp-1", testDay)
	if err != nil {
		t.Fatalf("Day failed: %v", err)
	}
	if len(v.Events) != 0 {
		t.Errorf("stale fetch leaked into the cache: %v", v.Events)
	}
	if store.fetchCount() != 2 {
		t.Errorf("fetches = %d, want 2", store.fetchCount())
	}
}

func TestService_CancelledReaderDoesNotFailOthers(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	store.put(event("a", clock(9, 0, 0), true))

	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.entered = make(chan struct{}, 2)
	store.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Day(ctx, "emp-1", testDay)
		first <- err
	}()
	<-store.entered

	second := make(chan error, 1)
	go func() {
		v, err := svc.Day(context.Background(), "emp-1", testDay)
		if err == nil && len(v.Events) != 1 {
			err = fmt.Errorf("events = %d, want 1", len(v.Events))
		}
		second <- err
	}()

	cancel()
	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled reader err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled reader kept waiting on the shared fetch")
	}

	close(gate)
	select {
	case err := <-second:
		if err != nil {
			t.Errorf("other reader failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("other reader never returned")
	}
}

func TestService_Toggle(t *testing.T) {
	svc, _, clk := newTestService(t, clock(9, 0, 0))
	ctx := context.Background()

	v, err := svc.Toggle(ctx, "emp-1")
	if err != nil {
		t.Fatalf("Toggle in failed: %v", err)
	}
	if !v.Timer.Running() {
		t.Fatalf("expected running after first toggle")
	}

	clk.Advance(2 * time.Hour)
	v, err = svc.Toggle(ctx, "emp-1")
	if err != nil {
		t.Fatalf("Toggle out failed: %v", err)
	}
	if v.Timer.Running() || v.Timer.PastSeconds != 7200 {
		t.Errorf("Timer = %+v, want idle with 7200s", v.Timer)
	}
}

func TestService_ToggleTooSoon(t *testing.T) {
	svc, _, clk := newTestService(t, clock(9, 0, 0))
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "emp-1"); err != nil {
		t.Fatalf("Toggle in failed: %v", err)
	}
	clk.Advance(20 * time.Second)
	_, err := svc.Toggle(ctx, "emp-1")
	mustViolate(t, err, RuleTooShort)
}

func TestService_DeleteUnknown(t *testing.T) {
	svc, _, _ := newTestService(t, clock(14, 0, 0))
	if err := svc.Delete(context.Background(), "emp-1", testDay, "missing"); err == nil {
		t.Errorf("expected error deleting unknown id")
	}
	if err := svc.Delete(context.Background(), "emp-1", testDay, " "); err == nil {
		t.Errorf("expected error for empty id")
	}
}

func TestService_StoreErrorIsWrapped(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	boom := errors.New("connection refused")
	store.fetchErr = boom

	_, err := svc.Day(context.Background(), "emp-1", testDay)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestService_Range(t *testing.T) {
	svc, store, _ := newTestService(t, clock(14, 0, 0))
	store.put(event("a", clock(9, 0, 0), true))
	store.put(event("b", clock(10, 0, 0), false))

	views, err := svc.Range(context.Background(), "emp-1", testDay.Prev(), testDay.Next())
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 days, got %d", len(views))
	}
	if views[1].Closed != time.Hour || views[0].Closed != 0 {
		t.Errorf("unexpected totals %v %v", views[0].Closed, views[1].Closed)
	}
	if _, err := svc.Range(context.Background(), "emp-1", testDay, testDay.Prev()); err == nil {
		t.Errorf("expected error for inverted range")
	}
}

func TestService_Board(t *testing.T) {
	svc, _, _ := newTestService(t, clock(14, 0, 0))
	if _, err := svc.Board(context.Background(), testDay); !errors.Is(err, ErrNoRoster) {
		t.Fatalf("err = %v, want ErrNoRoster", err)
	}

	roster := fakeRoster{data: map[string]map[Day][]models.AttendanceEvent{
		"zoe":   {testDay: {event("a", clock(9, 0, 0), true)}},
		"Aaron": {testDay: {event("b", clock(8, 0, 0), true), event("c", clock(9, 0, 0), false)}},
		"mia":   {},
	}}
	WithRoster(roster)(svc)

	rows, err := svc.Board(context.Background(), testDay)
	if err != nil {
		t.Fatalf("Board failed: %v", err)
	}
	if len(rows) != 3 || rows[0].Name != "Aaron" || rows[2].Name != "zoe" {
		t.Fatalf("rows not sorted by name: %+v", rows)
	}
	if rows[0].Present() || !rows[2].Present() || rows[1].Present() {
		t.Errorf("unexpected presence flags")
	}
}
