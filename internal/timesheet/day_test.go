package timesheet

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-10-15")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if d != testDay {
		t.Errorf("ParseDay = %v, want %v", d, testDay)
	}
	if _, err := ParseDay("15/10/2026"); err == nil {
		t.Errorf("expected error for non ISO day")
	}
}

func TestDay_Bounds(t *testing.T) {
	start := testDay.Start(testLoc)
	end := testDay.End(testLoc)
	if !start.Equal(clock(0, 0, 0)) {
		t.Errorf("Start = %v, want midnight", start)
	}
	if end.Sub(start) != 24*time.Hour-time.Millisecond {
		t.Errorf("End - Start = %v, want 23:59:59.999", end.Sub(start))
	}
	if !testDay.Contains(end, testLoc) {
		t.Errorf("day should contain its last millisecond")
	}
	if testDay.Contains(end.Add(time.Millisecond), testLoc) {
		t.Errorf("day should not contain next midnight")
	}
}

func TestDay_UsesLocalDate(t *testing.T) {
	// 01:00 at UTC+3 is still the previous day in UTC
	at := clock(1, 0, 0)
	if !testDay.Contains(at, testLoc) {
		t.Errorf("expected %v to belong to %v locally", at, testDay)
	}
	if testDay.Contains(at, time.UTC) {
		t.Errorf("expected %v to belong to the previous day in UTC", at)
	}
}

func TestDay_NextPrevAcrossMonth(t *testing.T) {
	d := Day{Year: 2026, Month: time.October, Dom: 31}
	if got := d.Next(); got.String() != "2026-11-01" {
		t.Errorf("Next = %v, want 2026-11-01", got)
	}
	if got := d.Next().Prev(); got != d {
		t.Errorf("Prev(Next) = %v, want %v", got, d)
	}
}

func TestFindDay(t *testing.T) {
	cases := map[string]string{
		"2026-10-15":               "2026-10-15",
		"2026-10-15T00:00:00.000Z": "2026-10-15",
		"Thu 2026-10-15 (week 42)": "2026-10-15",
	}
	for key, want := range cases {
		d, ok := FindDay(key)
		if !ok || d.String() != want {
			t.Errorf("FindDay(%q) = %v, %v; want %s", key, d, ok, want)
		}
	}
	if _, ok := FindDay("yesterday"); ok {
		t.Errorf("FindDay should fail without a date")
	}
}

func TestDay_JSONMapKey(t *testing.T) {
	data, err := json.Marshal(map[Day]int{testDay: 1})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"2026-10-15":1}` {
		t.Errorf("Marshal = %s", data)
	}
	var back map[Day]int
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back[testDay] != 1 {
		t.Errorf("round trip lost key: %v", back)
	}
}

func TestWeekStart(t *testing.T) {
	// 2026-10-15 is a Thursday
	if got := WeekStart(testDay); got.String() != "2026-10-12" {
		t.Errorf("WeekStart = %v, want 2026-10-12", got)
	}
	sunday := Day{Year: 2026, Month: time.October, Dom: 18}
	if got := WeekStart(sunday); got.String() != "2026-10-12" {
		t.Errorf("WeekStart(sunday) = %v, want 2026-10-12", got)
	}
}
