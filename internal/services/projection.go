package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
	"timebook/internal/log"
	"timebook/internal/storage"
)

// SyncResult reports how many projections a sync run wrote and removed.
// The counts feed the user-facing notification built upstream.
type SyncResult struct {
	Synced  int
	Removed int
}

// Message renders the notification text shown after a sync run.
func (r SyncResult) Message() string {
	msg := "No actuals to sync"
	if r.Synced > 0 {
		msg = fmt.Sprintf("Synced %d projection(s)", r.Synced)
	}
	if r.Removed > 0 {
		msg += fmt.Sprintf(" (removed %d empty projection(s))", r.Removed)
	}
	return msg
}

// ProjectionService maintains projected hours: explicit per-cell saves
// and the sync-actuals reconciliation against logged time entries.
type ProjectionService struct {
	store  storage.Store
	logger *log.Logger
}

func NewProjectionService(store storage.Store, logger *log.Logger) *ProjectionService {
	return &ProjectionService{
		store:  store,
		logger: logger.WithComponent(log.ComponentProjection),
	}
}

// SyncActuals overwrites projections with the summed logged hours for
// every billable client and every day from monthStart through today
// inclusive. Days with no logged hours lose any stale projection.
//
// today is injected by the caller, never read from the clock here, so
// runs are deterministic. The run is idempotent: a second pass with
// unchanged entries re-upserts the same values and removes nothing.
// Each upsert and delete is individually atomic; there is no whole-run
// transaction, so a long run could be chunked per day without changing
// the per-day contract.
func (s *ProjectionService) SyncActuals(ctx context.Context, monthStart, today core.Date) (SyncResult, error) {
	var result SyncResult
	if monthStart.After(today) {
		return result, nil
	}

	clients, err := s.store.ListBillableClients(ctx)
	if err != nil {
		return result, fmt.Errorf("list billable clients: %w", err)
	}

	for _, client := range clients {
		for day := monthStart; !day.After(today); day = day.AddDays(1) {
			actual, err := s.store.SumHours(ctx, client.ID, day)
			if err != nil {
				return result, fmt.Errorf("sum hours for client %d on %s: %w", client.ID, day, err)
			}

			if actual.IsPositive() {
				if err := s.store.UpsertProjectedEntry(ctx, client.ID, day, actual); err != nil {
					return result, fmt.Errorf("upsert projection for client %d on %s: %w", client.ID, day, err)
				}
				result.Synced++
				continue
			}

			exists, err := s.store.ProjectedEntryExists(ctx, client.ID, day)
			if err != nil {
				return result, fmt.Errorf("check projection for client %d on %s: %w", client.ID, day, err)
			}
			if exists {
				if err := s.store.DeleteProjectedEntry(ctx, client.ID, day); err != nil {
					return result, fmt.Errorf("delete projection for client %d on %s: %w", client.ID, day, err)
				}
				result.Removed++
			}
		}
	}

	s.logger.InfoContext(ctx, "Actuals synced into projections",
		log.FieldDate, today.String(),
		log.FieldSynced, result.Synced,
		log.FieldRemoved, result.Removed)
	return result, nil
}

// SaveProjection upserts the single projection row for a cell, or
// deletes it when hours is zero.
func (s *ProjectionService) SaveProjection(ctx context.Context, clientID int64, date core.Date, hours decimal.Decimal) error {
	if hours.IsNegative() {
		return core.ErrInvalidHours
	}

	if hours.IsZero() {
		if err := s.store.DeleteProjectedEntry(ctx, clientID, date); err != nil {
			return fmt.Errorf("delete projection: %w", err)
		}
		s.logger.InfoContext(ctx, "Projection cleared",
			log.FieldClientID, clientID, log.FieldDate, date.String())
		return nil
	}

	if err := s.store.UpsertProjectedEntry(ctx, clientID, date, hours); err != nil {
		return fmt.Errorf("save projection: %w", err)
	}
	s.logger.InfoContext(ctx, "Projection saved",
		log.FieldClientID, clientID,
		log.FieldDate, date.String(),
		log.FieldHours, hours.String())
	return nil
}
