package services

import (
	"testing"
	"time"

	"timebook/internal/core"
)

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("prev"); err != nil || d != DirectionPrev {
		t.Fatalf("expected prev, got %s (err=%v)", d, err)
	}
	if d, err := ParseDirection("next"); err != nil || d != DirectionNext {
		t.Fatalf("expected next, got %s (err=%v)", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCanGoToPreviousMonth(t *testing.T) {
	today := core.NewDate(2025, time.June, 14)

	cases := []struct {
		name  string
		mode  ViewMode
		year  int
		month time.Month
		want  bool
	}{
		{"actual mode always allows", ViewActual, 2025, time.June, true},
		{"actual mode allows deep past", ViewActual, 2020, time.January, true},
		{"projection at current month blocks", ViewProjection, 2025, time.June, false},
		{"projection in the past blocks", ViewProjection, 2025, time.May, false},
		{"projection next month allows", ViewProjection, 2025, time.July, true},
		{"projection next year allows", ViewProjection, 2026, time.January, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanGoToPreviousMonth(tc.mode, tc.year, tc.month, today)
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNavigate(t *testing.T) {
	today := core.NewDate(2025, time.June, 14)

	cases := []struct {
		name      string
		mode      ViewMode
		dir       Direction
		year      int
		month     time.Month
		wantYear  int
		wantMonth time.Month
	}{
		{"next within year", ViewActual, DirectionNext, 2025, time.June, 2025, time.July},
		{"next across year", ViewActual, DirectionNext, 2025, time.December, 2026, time.January},
		{"prev within year", ViewActual, DirectionPrev, 2025, time.June, 2025, time.May},
		{"prev across year", ViewActual, DirectionPrev, 2025, time.January, 2024, time.December},
		{"projection prev from july lands on june", ViewProjection, DirectionPrev, 2025, time.July, 2025, time.June},
		{"projection prev at current month is pinned", ViewProjection, DirectionPrev, 2025, time.June, 2025, time.June},
		{"projection next is unrestricted", ViewProjection, DirectionNext, 2025, time.June, 2025, time.July},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotYear, gotMonth := Navigate(tc.mode, tc.dir, tc.year, tc.month, today)
			if gotYear != tc.wantYear || gotMonth != tc.wantMonth {
				t.Fatalf("expected %d-%d, got %d-%d", tc.wantYear, tc.wantMonth, gotYear, gotMonth)
			}
		})
	}
}
