package stats

import (
	"testing"
	"time"
)

var now = time.Date(2026, 8, 12, 15, 0, 0, 0, time.UTC)

func appt(start time.Time, status string, price float64) Appointment {
	return Appointment{StartTime: start, Status: status, Price: price}
}

func TestDeriveEmptyMonth(t *testing.T) {
	d := Derive(nil, now)
	if d.TodayCount != 0 || d.MonthCount != 0 || d.MonthRevenue != 0 || d.CompletionRate != 0 {
		t.Fatalf("empty input should yield zeros, got %+v", d)
	}
}

func TestDeriveCountsAndRevenue(t *testing.T) {
	appts := []Appointment{
		appt(now.Add(-2*time.Hour), "completed", 100),
		appt(now.Add(-1*time.Hour), "completed", 50),
		appt(now.AddDate(0, 0, -3), "cancelled", 80),
		// Previous month, must not count.
		appt(now.AddDate(0, -1, 0), "completed", 999),
	}
	d := Derive(appts, now)
	if d.TodayCount != 2 {
		t.Fatalf("today = %d, want 2", d.TodayCount)
	}
	if d.MonthCount != 3 {
		t.Fatalf("month = %d, want 3", d.MonthCount)
	}
	if d.MonthRevenue != 150 {
		t.Fatalf("revenue = %v, want 150", d.MonthRevenue)
	}
	// 2 of 3 completed, rounds to 67.
	if d.CompletionRate != 67 {
		t.Fatalf("completion rate = %d, want 67", d.CompletionRate)
	}
}

func TestDeriveAllCompleted(t *testing.T) {
	appts := []Appointment{
		appt(now.AddDate(0, 0, -1), "completed", 10),
		appt(now.AddDate(0, 0, -2), "completed", 10),
	}
	if d := Derive(appts, now); d.CompletionRate != 100 {
		t.Fatalf("completion rate = %d, want 100", d.CompletionRate)
	}
}

func TestDeriveMixedLocations(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	local := time.Date(2026, 8, 12, 15, 0, 0, 0, loc)
	appts := []Appointment{
		// 22:00 local on the 12th, which is already the 13th in UTC.
		appt(time.Date(2026, 8, 13, 1, 0, 0, 0, time.UTC), "pending", 0),
		// 23:00 local on Aug 31, which is already September in UTC.
		appt(time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC), "completed", 100),
	}
	d := Derive(appts, local)
	if d.TodayCount != 1 {
		t.Fatalf("today = %d, want 1", d.TodayCount)
	}
	if d.MonthCount != 2 {
		t.Fatalf("month = %d, want 2", d.MonthCount)
	}
	if d.MonthRevenue != 100 {
		t.Fatalf("revenue = %v, want 100", d.MonthRevenue)
	}
}

func TestDayBucketsSevenDays(t *testing.T) {
	appts := []Appointment{
		appt(now, "confirmed", 40),
		appt(now.AddDate(0, 0, -6), "completed", 120),
		// Outside the window.
		appt(now.AddDate(0, 0, -7), "completed", 75),
	}
	buckets := DayBuckets(appts, now, 7, time.UTC)
	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	if buckets[0].Date != "2026-08-06" || buckets[0].Count != 1 {
		t.Fatalf("first bucket = %+v", buckets[0])
	}
	if buckets[0].Revenue != 120 {
		t.Fatalf("completed revenue = %v, want 120", buckets[0].Revenue)
	}
	// Confirmed but not completed: counted, no revenue.
	if buckets[6].Revenue != 0 {
		t.Fatalf("last bucket revenue = %v, want 0", buckets[6].Revenue)
	}
	if buckets[6].Date != "2026-08-12" || buckets[6].Count != 1 {
		t.Fatalf("last bucket = %+v", buckets[6])
	}
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != 2 {
		t.Fatalf("window total = %d, want 2", total)
	}
}

func TestDayBucketsMidnightStaysInDay(t *testing.T) {
	midnight := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	buckets := DayBuckets([]Appointment{appt(midnight, "pending", 0)}, now, 7, time.UTC)
	if buckets[6].Count != 1 {
		t.Fatalf("midnight appointment should land on its own day, got %+v", buckets[6])
	}
}

func TestDayBucketsTimezoneShift(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	// 01:00 UTC on the 12th is still the 11th in São Paulo.
	early := time.Date(2026, 8, 12, 1, 0, 0, 0, time.UTC)
	buckets := DayBuckets([]Appointment{appt(early, "pending", 0)}, now, 7, loc)
	if buckets[5].Date != "2026-08-11" || buckets[5].Count != 1 {
		t.Fatalf("expected count on 2026-08-11, got %+v", buckets)
	}
}

func TestCalendarEventsColors(t *testing.T) {
	appts := []Appointment{
		{ID: "a1", CustomerName: "Ana", ServiceName: "Corte", StartTime: now, EndTime: now.Add(time.Hour), Status: "confirmed"},
		{ID: "a2", CustomerName: "Bia", StartTime: now, EndTime: now.Add(time.Hour), Status: "no-show"},
	}
	events := CalendarEvents(appts, time.UTC)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Color != "#3b82f6" {
		t.Fatalf("confirmed color = %q", events[0].Color)
	}
	if events[0].Title != "Ana - Corte" {
		t.Fatalf("title = %q", events[0].Title)
	}
	if events[1].Color != defaultColor {
		t.Fatalf("unknown status should fall back to default color, got %q", events[1].Color)
	}
	if events[1].Title != "Bia" {
		t.Fatalf("title without service = %q", events[1].Title)
	}
}
