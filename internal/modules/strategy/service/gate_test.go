package service

import (
	"testing"
	"time"

	"failover_trader/internal/models"
)

func TestEntryGate_ForbiddenWindow(t *testing.T) {
	g, err := NewEntryGate(models.TimeWindow{Enabled: true, Start: "09:15", End: "10:00", Location: "Asia/Kolkata"})
	if err != nil {
		t.Fatalf("NewEntryGate: %v", err)
	}
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	cases := []struct {
		clock string
		allow bool
	}{
		{"09:14", true},
		{"09:15", false},
		{"09:30", false},
		{"09:59", false},
		{"10:00", true},
		{"14:30", true},
	}
	for _, tc := range cases {
		c, _ := time.Parse("15:04", tc.clock)
		at := time.Date(2024, 3, 4, c.Hour(), c.Minute(), 0, 0, ist)
		if got := g.Allow(at); got != tc.allow {
			t.Errorf("%s: allow=%v, want %v", tc.clock, got, tc.allow)
		}
	}

	// 04:00 UTC == 09:30 IST
	if g.Allow(time.Date(2024, 3, 4, 4, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected UTC time converted into exchange zone")
	}
}

func TestEntryGate_Disabled(t *testing.T) {
	g, err := NewEntryGate(models.TimeWindow{Start: "09:15", End: "10:00"})
	if err != nil {
		t.Fatalf("NewEntryGate: %v", err)
	}
	if !g.Allow(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("disabled gate must allow")
	}
}

func TestEntryGate_Overnight(t *testing.T) {
	g, err := NewEntryGate(models.TimeWindow{Enabled: true, Start: "23:00", End: "01:00"})
	if err != nil {
		t.Fatalf("NewEntryGate: %v", err)
	}
	if g.Allow(time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)) || g.Allow(time.Date(2024, 3, 4, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("overnight window must block")
	}
	if !g.Allow(time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("midday must pass")
	}
}

func TestEntryGate_BadClock(t *testing.T) {
	if _, err := NewEntryGate(models.TimeWindow{Enabled: true, Start: "9h", End: "10:00"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
