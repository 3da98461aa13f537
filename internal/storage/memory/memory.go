// Package memory provides an in-memory Store used as the default data
// backend for local runs and as the double in service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
	"timebook/internal/storage"
)

type EmailSend struct {
	InvoiceID int64
	SentAt    time.Time
}

type Store struct {
	mu          sync.Mutex
	clients     map[int64]core.Client
	entries     map[int64]core.TimeEntry
	projections map[core.CellKey]core.ProjectedEntry
	invoices    map[int64]core.Invoice
	emailSends  []EmailSend
	nextID      int64
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		clients:     make(map[int64]core.Client),
		entries:     make(map[int64]core.TimeEntry),
		projections: make(map[core.CellKey]core.ProjectedEntry),
		invoices:    make(map[int64]core.Invoice),
	}
}

func (s *Store) Close() error { return nil }

// InTx runs fn against the store itself. The double gives atomic
// visibility per call but no rollback; tests that need rollback
// semantics belong against the SQLite repository.
func (s *Store) InTx(_ context.Context, fn func(storage.Store) error) error {
	return fn(s)
}

// AddClient seeds a client, assigning an id when none is set.
func (s *Store) AddClient(c core.Client) core.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextIDLocked()
	}
	s.clients[c.ID] = c
	return c
}

// AddTimeEntry seeds a time entry, assigning an id when none is set.
func (s *Store) AddTimeEntry(e core.TimeEntry) core.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.nextIDLocked()
	}
	s.entries[e.ID] = e
	return e
}

// AddProjectedEntry seeds a projection, replacing any existing row for
// the same cell.
func (s *Store) AddProjectedEntry(p core.ProjectedEntry) core.ProjectedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextIDLocked()
	}
	s.projections[p.Cell()] = p
	return p
}

// AddInvoice seeds an invoice with its lines.
func (s *Store) AddInvoice(inv core.Invoice) core.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == 0 {
		inv.ID = s.nextIDLocked()
	}
	s.invoices[inv.ID] = inv
	return inv
}

// TimeEntry returns a seeded or stored entry for test inspection.
func (s *Store) TimeEntry(id int64) (core.TimeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// TimeEntryCount returns the number of stored time entries.
func (s *Store) TimeEntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ProjectedEntryFor returns the projection for a cell, if any.
func (s *Store) ProjectedEntryFor(clientID int64, date core.Date) (core.ProjectedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projections[core.CellKey{ClientID: clientID, Date: date}]
	return p, ok
}

// ProjectedEntryCount returns the number of stored projections.
func (s *Store) ProjectedEntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projections)
}

// EmailSends returns the recorded invoice email sends.
func (s *Store) EmailSends() []EmailSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmailSend(nil), s.emailSends...)
}

func (s *Store) ListBillableClients(_ context.Context) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clients []core.Client
	for _, c := range s.clients {
		if c.Billable() {
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (s *Store) GetClient(_ context.Context, id int64) (*core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) TimeEntriesInRange(_ context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]bool, len(clientIDs))
	for _, id := range clientIDs {
		wanted[id] = true
	}

	grouped := make(map[core.CellKey][]core.TimeEntry)
	for _, e := range sortedEntriesLocked(s.entries) {
		if wanted[e.ClientID] && !e.Date.Before(start) && !e.Date.After(end) {
			grouped[e.Cell()] = append(grouped[e.Cell()], e)
		}
	}
	return grouped, nil
}

func (s *Store) SumHours(_ context.Context, clientID int64, date core.Date) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, e := range s.entries {
		if e.ClientID == clientID && e.Date == date {
			total = total.Add(e.Hours)
		}
	}
	return total, nil
}

func (s *Store) GetTimeEntry(_ context.Context, id int64) (*core.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *Store) CreateTimeEntry(_ context.Context, clientID int64, date core.Date, description string, hours decimal.Decimal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextIDLocked()
	s.entries[id] = core.TimeEntry{
		ID:          id,
		ClientID:    clientID,
		Date:        date,
		Hours:       hours,
		Description: description,
	}
	return id, nil
}

func (s *Store) UpdateTimeEntry(_ context.Context, id int64, description string, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.IsBilled() {
		return nil
	}
	e.Description = description
	e.Hours = hours
	s.entries[id] = e
	return nil
}

func (s *Store) DeleteUnbilled(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if e, ok := s.entries[id]; ok && !e.IsBilled() {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *Store) ProjectedEntriesInRange(_ context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.ProjectedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]bool, len(clientIDs))
	for _, id := range clientIDs {
		wanted[id] = true
	}

	grouped := make(map[core.CellKey][]core.ProjectedEntry)
	for cell, p := range s.projections {
		if wanted[cell.ClientID] && !cell.Date.Before(start) && !cell.Date.After(end) {
			grouped[cell] = append(grouped[cell], p)
		}
	}
	return grouped, nil
}

func (s *Store) UpsertProjectedEntry(_ context.Context, clientID int64, date core.Date, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell := core.CellKey{ClientID: clientID, Date: date}
	if p, ok := s.projections[cell]; ok {
		p.Hours = hours
		s.projections[cell] = p
		return nil
	}
	s.projections[cell] = core.ProjectedEntry{
		ID:       s.nextIDLocked(),
		ClientID: clientID,
		Date:     date,
		Hours:    hours,
	}
	return nil
}

func (s *Store) DeleteProjectedEntry(_ context.Context, clientID int64, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projections, core.CellKey{ClientID: clientID, Date: date})
	return nil
}

func (s *Store) ProjectedEntryExists(_ context.Context, clientID int64, date core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.projections[core.CellKey{ClientID: clientID, Date: date}]
	return ok, nil
}

func (s *Store) GetInvoice(_ context.Context, id int64) (*core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invoices[id]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (s *Store) LockInvoiceConversionRate(_ context.Context, id int64, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok || inv.ConversionRate != nil {
		return nil
	}
	inv.ConversionRate = &rate
	s.invoices[id] = inv
	return nil
}

func (s *Store) RecordInvoiceEmailSend(_ context.Context, invoiceID int64, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emailSends = append(s.emailSends, EmailSend{InvoiceID: invoiceID, SentAt: sentAt})
	return nil
}

func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func sortedEntriesLocked(entries map[int64]core.TimeEntry) []core.TimeEntry {
	out := make([]core.TimeEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
