package http

import (
	"errors"
	"net/http"
	"strconv"

	"timebook/internal/core"
	"timebook/internal/services"
)

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	today := core.DateOf(s.now())

	mode, err := services.ParseViewMode(r.URL.Query().Get("mode"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	year, month, err := parseYearMonth(r, today)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var grid *services.GridModel
	switch mode {
	case services.ViewProjection:
		grid, err = s.grids.BuildProjectionGrid(r.Context(), year, month, today)
	default:
		grid, err = s.grids.BuildActualGrid(r.Context(), year, month)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build grid")
		return
	}

	respondJSON(w, http.StatusOK, buildGridResponse(grid, today))
}

func (s *Server) handleCellSync(w http.ResponseWriter, r *http.Request) {
	var req cellSyncRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	edited := make([]core.EditedEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		edited = append(edited, core.EditedEntry{
			ID:          e.ID,
			Description: e.Description,
			Hours:       e.Hours,
		})
	}

	if err := s.entries.SyncCell(r.Context(), req.ClientID, date, edited, req.ExistingIDs); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sync cell")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSaveProjection(w http.ResponseWriter, r *http.Request) {
	var req projectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date")
		return
	}

	if err := s.projections.SaveProjection(r.Context(), req.ClientID, date, req.Hours); err != nil {
		if errors.Is(err, core.ErrInvalidHours) {
			respondError(w, http.StatusUnprocessableEntity, "hours must not be negative")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to save projection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSyncActuals(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	year, month, err := yearMonthOf(req)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Actuals can only flow into the present month's projections; past
	// and future months have nothing to pull from.
	today := core.DateOf(s.now())
	if year != today.Year || month != today.Month {
		respondError(w, http.StatusUnprocessableEntity, "can only sync the current month")
		return
	}

	result, err := s.projections.SyncActuals(r.Context(), core.MonthStart(year, month), today)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sync actuals")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"synced":  result.Synced,
		"removed": result.Removed,
		"message": result.Message(),
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	today := core.DateOf(s.now())

	mode, err := services.ParseViewMode(r.URL.Query().Get("mode"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	dir, err := services.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	year, month, err := parseYearMonth(r, today)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	nextYear, nextMonth := services.Navigate(mode, dir, year, month, today)
	respondJSON(w, http.StatusOK, map[string]any{
		"year":            nextYear,
		"month":           int(nextMonth),
		"can_go_previous": services.CanGoToPreviousMonth(mode, nextYear, nextMonth, today),
	})
}

func (s *Server) handleInvoiceSend(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || invoiceID <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "invalid invoice id")
		return
	}
	test := r.URL.Query().Get("test") == "1" || r.URL.Query().Get("test") == "true"

	if err := s.invoices.QueueInvoiceEmail(r.Context(), invoiceID, test); err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			respondError(w, http.StatusNotFound, "invoice not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to queue invoice email")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		respondError(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}

	var req monthRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	year, month, err := yearMonthOf(req)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	mode, err := services.ParseViewMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var grid *services.GridModel
	switch mode {
	case services.ViewProjection:
		grid, err = s.grids.BuildProjectionGrid(r.Context(), year, month, core.DateOf(s.now()))
	default:
		grid, err = s.grids.BuildActualGrid(r.Context(), year, month)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build grid")
		return
	}
	if err := s.exporter.AppendMonthReport(r.Context(), grid); err != nil {
		respondError(w, http.StatusBadGateway, "failed to export report")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "exported"})
}
