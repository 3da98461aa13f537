package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"timebook/internal/core"
	"timebook/internal/log"
	"timebook/internal/storage"
)

// ViewMode selects which grid a caller is looking at.
type ViewMode string

const (
	ViewActual     ViewMode = "actual"
	ViewProjection ViewMode = "projection"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewActual, ViewProjection:
		return ViewMode(s), nil
	case "":
		return ViewActual, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

type (
	// GridCell aggregates one client's entries on one day.
	GridCell struct {
		TotalHours decimal.Decimal
		// IsBilled is true when every entry in the cell is billed.
		// Meaningless in projection mode and for backfilled cells.
		IsBilled bool
		Entries  []core.TimeEntry
	}

	// ClientTotal carries one client's month totals. Revenue is in the
	// client's own currency; RevenueUsd is its USD conversion.
	ClientTotal struct {
		Hours      decimal.Decimal
		Revenue    decimal.Decimal
		RevenueUsd decimal.Decimal
	}

	// GridModel is the complete view-model of one calendar month.
	GridModel struct {
		Mode      ViewMode
		Year      int
		Month     time.Month
		Days      int
		MonthName string
		Clients   []core.Client
		Cells     map[core.CellKey]GridCell
		Totals    map[int64]ClientTotal
		// GrandTotalHours sums all cells; GrandTotalRevenueUsd sums the
		// per-client revenue converted to USD.
		GrandTotalHours      decimal.Decimal
		GrandTotalRevenueUsd decimal.Decimal
	}
)

// Cell returns the cell for a client and day, and whether it has data.
func (g *GridModel) Cell(clientID int64, day int) (GridCell, bool) {
	cell, ok := g.Cells[core.CellKey{ClientID: clientID, Date: core.NewDate(g.Year, g.Month, day)}]
	return cell, ok
}

// GridService builds the calendar view-models for both view modes.
type GridService struct {
	store  storage.Store
	logger *log.Logger
}

func NewGridService(store storage.Store, logger *log.Logger) *GridService {
	return &GridService{
		store:  store,
		logger: logger.WithComponent(log.ComponentGrid),
	}
}

// BuildActualGrid aggregates logged time entries for one month.
func (s *GridService) BuildActualGrid(ctx context.Context, year int, month time.Month) (*GridModel, error) {
	clients, err := s.store.ListBillableClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list billable clients: %w", err)
	}

	entries, err := s.store.TimeEntriesInRange(ctx, clientIDs(clients), core.MonthStart(year, month), core.MonthEnd(year, month))
	if err != nil {
		return nil, fmt.Errorf("load time entries: %w", err)
	}

	grid := newGridModel(ViewActual, year, month, clients)
	for cell, cellEntries := range entries {
		total := decimal.Zero
		billed := true
		for _, e := range cellEntries {
			total = total.Add(e.Hours)
			billed = billed && e.IsBilled()
		}
		grid.Cells[cell] = GridCell{TotalHours: total, IsBilled: billed, Entries: cellEntries}
	}

	grid.computeTotals()
	return grid, nil
}

// BuildProjectionGrid aggregates projected hours for one month. When the
// requested month is today's month, past days without an explicit
// projection are backfilled from logged actuals for display; nothing is
// written back to the projection store.
func (s *GridService) BuildProjectionGrid(ctx context.Context, year int, month time.Month, today core.Date) (*GridModel, error) {
	clients, err := s.store.ListBillableClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list billable clients: %w", err)
	}

	ids := clientIDs(clients)
	monthStart := core.MonthStart(year, month)
	backfill := today.SameMonth(monthStart)

	var (
		projections map[core.CellKey][]core.ProjectedEntry
		actuals     map[core.CellKey][]core.TimeEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projections, err = s.store.ProjectedEntriesInRange(gctx, ids, monthStart, core.MonthEnd(year, month))
		if err != nil {
			return fmt.Errorf("load projected entries: %w", err)
		}
		return nil
	})
	if backfill {
		g.Go(func() error {
			var err error
			actuals, err = s.store.TimeEntriesInRange(gctx, ids, monthStart, today)
			if err != nil {
				return fmt.Errorf("load actuals for backfill: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid := newGridModel(ViewProjection, year, month, clients)
	for cell, cellEntries := range projections {
		total := decimal.Zero
		for _, p := range cellEntries {
			total = total.Add(p.Hours)
		}
		grid.Cells[cell] = GridCell{TotalHours: total}
	}

	for cell, cellEntries := range actuals {
		if _, ok := grid.Cells[cell]; ok {
			continue
		}
		total := decimal.Zero
		for _, e := range cellEntries {
			total = total.Add(e.Hours)
		}
		if total.IsPositive() {
			grid.Cells[cell] = GridCell{TotalHours: total}
		}
	}

	grid.computeTotals()
	return grid, nil
}

func newGridModel(mode ViewMode, year int, month time.Month, clients []core.Client) *GridModel {
	return &GridModel{
		Mode:      mode,
		Year:      year,
		Month:     month,
		Days:      core.DaysInMonth(year, month),
		MonthName: core.MonthStart(year, month).Format("January 2006"),
		Clients:   clients,
		Cells:     make(map[core.CellKey]GridCell),
		Totals:    make(map[int64]ClientTotal),
	}
}

func (g *GridModel) computeTotals() {
	g.GrandTotalHours = decimal.Zero
	g.GrandTotalRevenueUsd = decimal.Zero

	for _, client := range g.Clients {
		hours := decimal.Zero
		for cell, data := range g.Cells {
			if cell.ClientID == client.ID {
				hours = hours.Add(data.TotalHours)
			}
		}

		revenue := hours.Mul(client.HourlyRate)
		total := ClientTotal{
			Hours:      hours,
			Revenue:    revenue,
			RevenueUsd: client.Currency.ToUsd(revenue),
		}
		g.Totals[client.ID] = total
		g.GrandTotalHours = g.GrandTotalHours.Add(hours)
		g.GrandTotalRevenueUsd = g.GrandTotalRevenueUsd.Add(total.RevenueUsd)
	}
}

func clientIDs(clients []core.Client) []int64 {
	ids := make([]int64, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	return ids
}
