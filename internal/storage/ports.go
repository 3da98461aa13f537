package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
)

// Ports for the persistence layer. The SQLite repository in this package
// and the in-memory store in storage/memory both implement Store.
type (
	ClientStore interface {
		// ListBillableClients returns active clients with a positive
		// hourly rate, ordered by name.
		ListBillableClients(ctx context.Context) ([]core.Client, error)
		// GetClient returns nil when no client has the given id.
		GetClient(ctx context.Context, id int64) (*core.Client, error)
	}

	TimeEntryStore interface {
		// TimeEntriesInRange returns entries for the given clients with
		// dates in [start, end], grouped by grid cell.
		TimeEntriesInRange(ctx context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.TimeEntry, error)
		// SumHours sums the logged hours of one client on one day.
		SumHours(ctx context.Context, clientID int64, date core.Date) (decimal.Decimal, error)
		// GetTimeEntry returns nil when the entry does not exist.
		GetTimeEntry(ctx context.Context, id int64) (*core.TimeEntry, error)
		CreateTimeEntry(ctx context.Context, clientID int64, date core.Date, description string, hours decimal.Decimal) (int64, error)
		// UpdateTimeEntry rewrites description and hours of an unbilled
		// entry. Billed entries are left untouched without error.
		UpdateTimeEntry(ctx context.Context, id int64, description string, hours decimal.Decimal) error
		// DeleteUnbilled removes the unbilled entries among ids. Billed
		// ids are silently skipped, never an error.
		DeleteUnbilled(ctx context.Context, ids []int64) error
	}

	ProjectedEntryStore interface {
		ProjectedEntriesInRange(ctx context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.ProjectedEntry, error)
		// UpsertProjectedEntry atomically inserts or overwrites the one
		// projection row per (client, date).
		UpsertProjectedEntry(ctx context.Context, clientID int64, date core.Date, hours decimal.Decimal) error
		DeleteProjectedEntry(ctx context.Context, clientID int64, date core.Date) error
		ProjectedEntryExists(ctx context.Context, clientID int64, date core.Date) (bool, error)
	}

	InvoiceStore interface {
		// GetInvoice returns the invoice with its lines, nil when absent.
		GetInvoice(ctx context.Context, id int64) (*core.Invoice, error)
		// LockInvoiceConversionRate stores the reverse rate on an invoice
		// that does not have one yet. Already-locked invoices keep theirs.
		LockInvoiceConversionRate(ctx context.Context, id int64, rate decimal.Decimal) error
		RecordInvoiceEmailSend(ctx context.Context, invoiceID int64, sentAt time.Time) error
	}

	// Store bundles all persistence ports plus transaction support.
	Store interface {
		ClientStore
		TimeEntryStore
		ProjectedEntryStore
		InvoiceStore

		// InTx runs fn atomically: every call made through the Store
		// passed to fn commits together or not at all.
		InTx(ctx context.Context, fn func(Store) error) error
		Close() error
	}
)
