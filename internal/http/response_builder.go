package http

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
	"timebook/internal/services"
)

type (
	entryView struct {
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Hours       decimal.Decimal `json:"hours"`
		IsBilled    bool            `json:"is_billed"`
	}

	cellView struct {
		ClientID   int64           `json:"client_id"`
		Date       string          `json:"date"`
		TotalHours decimal.Decimal `json:"total_hours"`
		IsBilled   bool            `json:"is_billed"`
		Entries    []entryView     `json:"entries"`
	}

	clientView struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}

	totalView struct {
		ClientID         int64           `json:"client_id"`
		Hours            decimal.Decimal `json:"hours"`
		Revenue          decimal.Decimal `json:"revenue"`
		RevenueFormatted string          `json:"revenue_formatted"`
		RevenueUsd       decimal.Decimal `json:"revenue_usd"`
	}

	gridResponse struct {
		Mode          string          `json:"mode"`
		Year          int             `json:"year"`
		Month         int             `json:"month"`
		MonthName     string          `json:"month_name"`
		Days          int             `json:"days"`
		Clients       []clientView    `json:"clients"`
		Cells         []cellView      `json:"cells"`
		Totals        []totalView     `json:"totals"`
		TotalHours    decimal.Decimal `json:"total_hours"`
		TotalUsd      decimal.Decimal `json:"total_usd"`
		TotalUsdLabel string          `json:"total_usd_formatted"`
		CanGoPrevious bool            `json:"can_go_previous"`
	}
)

// buildGridResponse flattens the cell map into a list sorted by client
// and date, so the payload is stable across requests.
func buildGridResponse(grid *services.GridModel, today core.Date) gridResponse {
	cells := make([]cellView, 0, len(grid.Cells))
	for key, cell := range grid.Cells {
		entries := make([]entryView, 0, len(cell.Entries))
		for _, e := range cell.Entries {
			entries = append(entries, entryView{
				ID:          e.ID,
				Description: e.Description,
				Hours:       e.Hours,
				IsBilled:    e.IsBilled(),
			})
		}
		cells = append(cells, cellView{
			ClientID:   key.ClientID,
			Date:       key.Date.String(),
			TotalHours: cell.TotalHours,
			IsBilled:   cell.IsBilled,
			Entries:    entries,
		})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].ClientID != cells[j].ClientID {
			return cells[i].ClientID < cells[j].ClientID
		}
		return cells[i].Date < cells[j].Date
	})

	clients := make([]clientView, 0, len(grid.Clients))
	totals := make([]totalView, 0, len(grid.Clients))
	for _, c := range grid.Clients {
		clients = append(clients, clientView{
			ID:       c.ID,
			Name:     c.Name,
			Currency: string(c.Currency),
		})
		t := grid.Totals[c.ID]
		totals = append(totals, totalView{
			ClientID:         c.ID,
			Hours:            t.Hours,
			Revenue:          t.Revenue,
			RevenueFormatted: c.Currency.Format(t.Revenue),
			RevenueUsd:       t.RevenueUsd,
		})
	}

	return gridResponse{
		Mode:          string(grid.Mode),
		Year:          grid.Year,
		Month:         int(grid.Month),
		MonthName:     grid.MonthName,
		Days:          grid.Days,
		Clients:       clients,
		Cells:         cells,
		Totals:        totals,
		TotalHours:    grid.GrandTotalHours,
		TotalUsd:      grid.GrandTotalRevenueUsd,
		TotalUsdLabel: core.USD.Format(grid.GrandTotalRevenueUsd),
		CanGoPrevious: services.CanGoToPreviousMonth(grid.Mode, grid.Year, grid.Month, today),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
