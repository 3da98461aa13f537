package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
	"timebook/internal/storage/memory"
)

func TestParseViewMode(t *testing.T) {
	cases := []struct {
		in   string
		out  ViewMode
		ok   bool
	}{
		{"", ViewActual, true},
		{"actual", ViewActual, true},
		{"projection", ViewProjection, true},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, err := ParseViewMode(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestBuildActualGrid(t *testing.T) {
	ctx := context.Background()

	t.Run("cells aggregate hours and billed state", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		day := core.NewDate(2025, time.June, 11)
		lineID := int64(5)
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.RequireFromString("2.0"), InvoiceLineID: &lineID})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.RequireFromString("3.5")})

		grid, err := NewGridService(store, testLogger()).BuildActualGrid(ctx, 2025, time.June)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		cell, ok := grid.Cell(client.ID, 11)
		if !ok {
			t.Fatal("expected a cell on the 11th")
		}
		if !cell.TotalHours.Equal(decimal.RequireFromString("5.5")) {
			t.Fatalf("expected 5.5 hours, got %s", cell.TotalHours)
		}
		if cell.IsBilled {
			t.Fatal("cell with an unbilled entry must not read as billed")
		}
		if len(cell.Entries) != 2 {
			t.Fatalf("expected both entries, got %d", len(cell.Entries))
		}
	})

	t.Run("cell is billed only when every entry is", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		day := core.NewDate(2025, time.June, 12)
		lineID := int64(5)
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.NewFromInt(1), InvoiceLineID: &lineID})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.NewFromInt(2), InvoiceLineID: &lineID})

		grid, err := NewGridService(store, testLogger()).BuildActualGrid(ctx, 2025, time.June)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		cell, _ := grid.Cell(client.ID, 12)
		if !cell.IsBilled {
			t.Fatal("fully billed cell must read as billed")
		}
	})

	t.Run("entries outside the month are excluded", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: core.NewDate(2025, time.May, 31), Hours: decimal.NewFromInt(4)})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: core.NewDate(2025, time.July, 1), Hours: decimal.NewFromInt(4)})

		grid, err := NewGridService(store, testLogger()).BuildActualGrid(ctx, 2025, time.June)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if len(grid.Cells) != 0 {
			t.Fatalf("expected empty grid, got %d cells", len(grid.Cells))
		}
	})

	t.Run("totals convert revenue to usd", func(t *testing.T) {
		store := memory.New()
		usd := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		cad := store.AddClient(core.Client{Name: "Maple", Currency: core.CAD, IsActive: true, HourlyRate: decimal.NewFromInt(100)})
		store.AddTimeEntry(core.TimeEntry{ClientID: usd.ID, Date: core.NewDate(2025, time.June, 11), Hours: decimal.NewFromInt(10)})
		store.AddTimeEntry(core.TimeEntry{ClientID: cad.ID, Date: core.NewDate(2025, time.June, 11), Hours: decimal.NewFromInt(10)})

		grid, err := NewGridService(store, testLogger()).BuildActualGrid(ctx, 2025, time.June)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		usdTotal := grid.Totals[usd.ID]
		if !usdTotal.Revenue.Equal(decimal.NewFromInt(800)) || !usdTotal.RevenueUsd.Equal(decimal.NewFromInt(800)) {
			t.Fatalf("unexpected usd totals: %+v", usdTotal)
		}
		cadTotal := grid.Totals[cad.ID]
		if !cadTotal.Revenue.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("expected 1000 CAD revenue, got %s", cadTotal.Revenue)
		}
		if !cadTotal.RevenueUsd.Equal(decimal.NewFromInt(710)) {
			t.Fatalf("expected 710 USD, got %s", cadTotal.RevenueUsd)
		}
		if !grid.GrandTotalHours.Equal(decimal.NewFromInt(20)) {
			t.Fatalf("expected 20 grand total hours, got %s", grid.GrandTotalHours)
		}
		if !grid.GrandTotalRevenueUsd.Equal(decimal.NewFromInt(1510)) {
			t.Fatalf("expected 1510 grand total usd, got %s", grid.GrandTotalRevenueUsd)
		}
	})
}

func TestBuildProjectionGrid(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit projections win over actuals", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		day := core.NewDate(2025, time.June, 10)
		store.AddProjectedEntry(core.ProjectedEntry{ClientID: client.ID, Date: day, Hours: decimal.NewFromInt(8)})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.NewFromInt(3)})

		today := core.NewDate(2025, time.June, 14)
		grid, err := NewGridService(store, testLogger()).BuildProjectionGrid(ctx, 2025, time.June, today)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		cell, _ := grid.Cell(client.ID, 10)
		if !cell.TotalHours.Equal(decimal.NewFromInt(8)) {
			t.Fatalf("projection must win, got %s", cell.TotalHours)
		}
	})

	t.Run("current month backfills from actuals", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: core.NewDate(2025, time.June, 5), Hours: decimal.NewFromInt(4)})

		today := core.NewDate(2025, time.June, 14)
		grid, err := NewGridService(store, testLogger()).BuildProjectionGrid(ctx, 2025, time.June, today)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		cell, ok := grid.Cell(client.ID, 5)
		if !ok || !cell.TotalHours.Equal(decimal.NewFromInt(4)) {
			t.Fatalf("expected backfilled cell with 4 hours, got %+v (ok=%v)", cell, ok)
		}
		// Display only, never written through to the store.
		if store.ProjectedEntryCount() != 0 {
			t.Fatalf("backfill must not persist projections, found %d", store.ProjectedEntryCount())
		}
	})

	t.Run("other months never backfill", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", Currency: core.USD, IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: core.NewDate(2025, time.May, 5), Hours: decimal.NewFromInt(4)})

		today := core.NewDate(2025, time.June, 14)
		grid, err := NewGridService(store, testLogger()).BuildProjectionGrid(ctx, 2025, time.May, today)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if len(grid.Cells) != 0 {
			t.Fatalf("past month must show only explicit projections, got %d cells", len(grid.Cells))
		}
	})

	t.Run("projection revenue uses client rate", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Maple", Currency: core.CAD, IsActive: true, HourlyRate: decimal.NewFromInt(100)})
		store.AddProjectedEntry(core.ProjectedEntry{ClientID: client.ID, Date: core.NewDate(2025, time.July, 2), Hours: decimal.NewFromInt(5)})

		today := core.NewDate(2025, time.June, 14)
		grid, err := NewGridService(store, testLogger()).BuildProjectionGrid(ctx, 2025, time.July, today)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		total := grid.Totals[client.ID]
		if !total.Revenue.Equal(decimal.NewFromInt(500)) || !total.RevenueUsd.Equal(decimal.NewFromInt(355)) {
			t.Fatalf("unexpected totals: %+v", total)
		}
	})
}
