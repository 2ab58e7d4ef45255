package holidays

import (
	"testing"
	"time"
)

func TestLookup(t *testing.T) {
	christmas := time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)
	name, ok := Lookup(christmas, time.UTC)
	if !ok || name != "Natal" {
		t.Fatalf("Lookup = %q, %v", name, ok)
	}

	ordinary := time.Date(2025, 12, 26, 10, 0, 0, 0, time.UTC)
	if _, ok := Lookup(ordinary, time.UTC); ok {
		t.Fatal("2025-12-26 is not a holiday")
	}
}

func TestLookupRespectsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	// 01:00 UTC on Jan 1st is still Dec 31st in São Paulo.
	newYearUTC := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	if _, ok := Lookup(newYearUTC, loc); ok {
		t.Fatal("should not be a holiday in São Paulo yet")
	}
	if _, ok := Lookup(newYearUTC, time.UTC); !ok {
		t.Fatal("should be a holiday in UTC")
	}
}

func TestBetween(t *testing.T) {
	got := Between("2025-11-01", "2025-11-30")
	if len(got) != 3 {
		t.Fatalf("expected 3 holidays in Nov 2025, got %d", len(got))
	}
	if got[0].Date != "2025-11-02" || got[2].Date != "2025-11-20" {
		t.Fatalf("unexpected window contents: %+v", got)
	}

	if got := Between("2027-01-01", "2027-12-31"); got != nil {
		t.Fatalf("table has no 2027 entries, got %+v", got)
	}
}
