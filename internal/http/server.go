// Package http is the thin JSON presentation layer over the tracking
// services. It parses and validates requests, delegates to the services
// and shapes their models for the wire; no domain logic lives here.
package http

import (
	"net/http"
	"time"

	"timebook/internal/services"
)

type Server struct {
	http.Server

	grids       *services.GridService
	entries     *services.TimeEntryService
	projections *services.ProjectionService
	invoices    *services.InvoiceService
	exporter    services.ReportExporter

	// now provides "today" for navigation bounds and sync cutoffs, so
	// handlers stay deterministic under test.
	now func() time.Time
}

type ServerOptions struct {
	Addr        string
	Grids       *services.GridService
	Entries     *services.TimeEntryService
	Projections *services.ProjectionService
	Invoices    *services.InvoiceService
	// Exporter is optional; export requests fail with 503 without it.
	Exporter services.ReportExporter
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewServer(opts ServerOptions) *Server {
	s := &Server{
		grids:       opts.Grids,
		entries:     opts.Entries,
		projections: opts.Projections,
		invoices:    opts.Invoices,
		exporter:    opts.Exporter,
		now:         opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/grid", s.handleGrid)
	mux.HandleFunc("POST /api/cells/sync", s.handleCellSync)
	mux.HandleFunc("PUT /api/projections", s.handleSaveProjection)
	mux.HandleFunc("POST /api/projections/sync", s.handleSyncActuals)
	mux.HandleFunc("GET /api/months/navigate", s.handleNavigate)
	mux.HandleFunc("POST /api/invoices/{id}/send", s.handleInvoiceSend)
	mux.HandleFunc("POST /api/reports/export", s.handleExportReport)

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: traceMiddleware(mux),
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
