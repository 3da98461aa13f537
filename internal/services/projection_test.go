package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
	"timebook/internal/storage/memory"
)

func TestSyncResultMessage(t *testing.T) {
	cases := []struct {
		result SyncResult
		want   string
	}{
		{SyncResult{}, "No actuals to sync"},
		{SyncResult{Synced: 3}, "Synced 3 projection(s)"},
		{SyncResult{Synced: 3, Removed: 1}, "Synced 3 projection(s) (removed 1 empty projection(s))"},
		{SyncResult{Removed: 2}, "No actuals to sync (removed 2 empty projection(s))"},
	}
	for _, tc := range cases {
		if got := tc.result.Message(); got != tc.want {
			t.Fatalf("%+v expected %q, got %q", tc.result, tc.want, got)
		}
	}
}

func TestSyncActuals(t *testing.T) {
	ctx := context.Background()
	monthStart := core.MonthStart(2025, time.June)
	today := core.NewDate(2025, time.June, 14)

	t.Run("projections follow logged hours", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		// Logged hours on the 14th; stale projection on the 13th with
		// no actuals behind it.
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: core.NewDate(2025, time.June, 14), Hours: decimal.NewFromInt(5)})
		store.AddProjectedEntry(core.ProjectedEntry{ClientID: client.ID, Date: core.NewDate(2025, time.June, 13), Hours: decimal.NewFromInt(8)})

		svc := NewProjectionService(store, testLogger())
		result, err := svc.SyncActuals(ctx, monthStart, today)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if result.Synced != 1 || result.Removed != 1 {
			t.Fatalf("expected 1 synced and 1 removed, got %+v", result)
		}
		p, ok := store.ProjectedEntryFor(client.ID, core.NewDate(2025, time.June, 14))
		if !ok || !p.Hours.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("expected projection of 5 hours on the 14th, got %+v (ok=%v)", p, ok)
		}
		if _, ok := store.ProjectedEntryFor(client.ID, core.NewDate(2025, time.June, 13)); ok {
			t.Fatal("stale projection on the 13th should be removed")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: core.NewDate(2025, time.June, 14), Hours: decimal.NewFromInt(5)})

		svc := NewProjectionService(store, testLogger())
		if _, err := svc.SyncActuals(ctx, monthStart, today); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		second, err := svc.SyncActuals(ctx, monthStart, today)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}

		if second.Synced != 1 || second.Removed != 0 {
			t.Fatalf("second run should re-upsert without removals, got %+v", second)
		}
		if store.ProjectedEntryCount() != 1 {
			t.Fatalf("expected a single projection row, got %d", store.ProjectedEntryCount())
		}
	})

	t.Run("multiple entries on one day sum", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		day := core.NewDate(2025, time.June, 10)
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.RequireFromString("2.5")})
		store.AddTimeEntry(core.TimeEntry{ClientID: client.ID, Date: day, Hours: decimal.RequireFromString("1.25")})

		svc := NewProjectionService(store, testLogger())
		if _, err := svc.SyncActuals(ctx, monthStart, today); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		p, ok := store.ProjectedEntryFor(client.ID, day)
		if !ok || !p.Hours.Equal(decimal.RequireFromString("3.75")) {
			t.Fatalf("expected 3.75 hours, got %+v (ok=%v)", p, ok)
		}
	})

	t.Run("non-billable clients are skipped", func(t *testing.T) {
		store := memory.New()
		inactive := store.AddClient(core.Client{Name: "Gone", IsActive: false, HourlyRate: decimal.NewFromInt(80)})
		store.AddTimeEntry(core.TimeEntry{ClientID: inactive.ID, Date: core.NewDate(2025, time.June, 14), Hours: decimal.NewFromInt(5)})

		svc := NewProjectionService(store, testLogger())
		result, err := svc.SyncActuals(ctx, monthStart, today)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Synced != 0 || store.ProjectedEntryCount() != 0 {
			t.Fatalf("inactive client must not sync, got %+v", result)
		}
	})

	t.Run("future month start is a no-op", func(t *testing.T) {
		store := memory.New()
		store.AddClient(core.Client{Name: "Acme", IsActive: true, HourlyRate: decimal.NewFromInt(80)})

		svc := NewProjectionService(store, testLogger())
		result, err := svc.SyncActuals(ctx, core.MonthStart(2025, time.July), today)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Synced != 0 || result.Removed != 0 {
			t.Fatalf("expected empty result, got %+v", result)
		}
	})
}

func TestSaveProjection(t *testing.T) {
	ctx := context.Background()
	day := core.NewDate(2025, time.June, 20)

	t.Run("positive hours upsert", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", IsActive: true, HourlyRate: decimal.NewFromInt(80)})

		svc := NewProjectionService(store, testLogger())
		if err := svc.SaveProjection(ctx, client.ID, day, decimal.NewFromInt(6)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := svc.SaveProjection(ctx, client.ID, day, decimal.NewFromInt(7)); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		p, ok := store.ProjectedEntryFor(client.ID, day)
		if !ok || !p.Hours.Equal(decimal.NewFromInt(7)) {
			t.Fatalf("expected 7 hours after overwrite, got %+v (ok=%v)", p, ok)
		}
		if store.ProjectedEntryCount() != 1 {
			t.Fatalf("cell must hold a single row, got %d", store.ProjectedEntryCount())
		}
	})

	t.Run("zero hours delete", func(t *testing.T) {
		store := memory.New()
		client := store.AddClient(core.Client{Name: "Acme", IsActive: true, HourlyRate: decimal.NewFromInt(80)})
		store.AddProjectedEntry(core.ProjectedEntry{ClientID: client.ID, Date: day, Hours: decimal.NewFromInt(6)})

		svc := NewProjectionService(store, testLogger())
		if err := svc.SaveProjection(ctx, client.ID, day, decimal.Zero); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if store.ProjectedEntryCount() != 0 {
			t.Fatal("zero hours must clear the projection")
		}
	})

	t.Run("negative hours rejected", func(t *testing.T) {
		store := memory.New()
		svc := NewProjectionService(store, testLogger())
		err := svc.SaveProjection(ctx, 1, day, decimal.NewFromInt(-1))
		if !errors.Is(err, core.ErrInvalidHours) {
			t.Fatalf("expected ErrInvalidHours, got %v", err)
		}
	})
}
