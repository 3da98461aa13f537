package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
	"timebook/internal/log"
	"timebook/internal/storage"
)

// TimeEntryService reconciles a user's edited line items for one grid
// cell against the stored time entries.
type TimeEntryService struct {
	store  storage.Store
	logger *log.Logger
}

func NewTimeEntryService(store storage.Store, logger *log.Logger) *TimeEntryService {
	return &TimeEntryService{
		store:  store,
		logger: logger.WithComponent(log.ComponentReconciler),
	}
}

// SyncCell applies the edited entries of one (client, date) cell as
// create/update/delete operations, all inside a single transaction.
//
// Billed entries are never touched: updates targeting them are dropped,
// and their ids still count as processed so the delete pass leaves them
// alone. An existing billed entry omitted from the edit therefore
// silently survives and reappears on reload; that mirrors the behavior
// the business relies on and is pinned by a regression test.
func (s *TimeEntryService) SyncCell(ctx context.Context, clientID int64, date core.Date, edited []core.EditedEntry, existingIDs []int64) error {
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		defaultDescription := date.Format("Jan 2") + " hours"
		processed := make(map[int64]bool, len(edited))

		for _, item := range edited {
			description := strings.TrimSpace(item.Description)
			if description == "" {
				description = defaultDescription
			}

			if item.ID != 0 {
				if err := s.updateExisting(ctx, tx, item.ID, description, item.Hours); err != nil {
					return err
				}
				// Processed even when the update was dropped, so the
				// entry is not targeted for deletion below.
				processed[item.ID] = true
				continue
			}

			id, err := tx.CreateTimeEntry(ctx, clientID, date, description, item.Hours)
			if err != nil {
				return fmt.Errorf("create entry for client %d on %s: %w", clientID, date, err)
			}
			processed[id] = true
		}

		var toDelete []int64
		for _, id := range existingIDs {
			if !processed[id] {
				toDelete = append(toDelete, id)
			}
		}
		// The store only deletes unbilled rows among these ids.
		if err := tx.DeleteUnbilled(ctx, toDelete); err != nil {
			return fmt.Errorf("delete removed entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync cell: %w", err)
	}

	s.logger.InfoContext(ctx, "Cell synced",
		log.FieldClientID, clientID,
		log.FieldDate, date.String(),
		"edited", len(edited))
	return nil
}

func (s *TimeEntryService) updateExisting(ctx context.Context, tx storage.Store, id int64, description string, hours decimal.Decimal) error {
	entry, err := tx.GetTimeEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("load entry %d: %w", id, err)
	}
	if entry == nil {
		// Gone since the form was loaded; nothing to update.
		s.logger.DebugContext(ctx, "Skipping update of missing entry", log.FieldEntryID, id)
		return nil
	}
	if entry.IsBilled() {
		// Explicit no-op branch: billed entries are immutable here.
		s.logger.DebugContext(ctx, "Skipping update of billed entry", log.FieldEntryID, id)
		return nil
	}
	if err := tx.UpdateTimeEntry(ctx, id, description, hours); err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	return nil
}
