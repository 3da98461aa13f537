package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"timebook/internal/core"
)

// SQLiteRepository is the production Store backed by a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	inTx    bool
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil && !r.inTx {
		return r.db.Close()
	}
	return nil
}

// InTx runs fn against a transaction-scoped repository. Rolls back on
// error, commits otherwise. Calls on an already transactional repository
// just reuse the open transaction.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := &SQLiteRepository{db: r.db, queries: New(tx), inTx: true}
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBillableClients(ctx context.Context) ([]core.Client, error) {
	return r.queries.ListBillableClients(ctx)
}

func (r *SQLiteRepository) GetClient(ctx context.Context, id int64) (*core.Client, error) {
	return r.queries.GetClient(ctx, id)
}

func (r *SQLiteRepository) TimeEntriesInRange(ctx context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.TimeEntry, error) {
	return r.queries.TimeEntriesInRange(ctx, clientIDs, start, end)
}

func (r *SQLiteRepository) SumHours(ctx context.Context, clientID int64, date core.Date) (decimal.Decimal, error) {
	return r.queries.SumHours(ctx, clientID, date)
}

func (r *SQLiteRepository) GetTimeEntry(ctx context.Context, id int64) (*core.TimeEntry, error) {
	return r.queries.GetTimeEntry(ctx, id)
}

func (r *SQLiteRepository) CreateTimeEntry(ctx context.Context, clientID int64, date core.Date, description string, hours decimal.Decimal) (int64, error) {
	return r.queries.CreateTimeEntry(ctx, clientID, date, description, hours)
}

func (r *SQLiteRepository) UpdateTimeEntry(ctx context.Context, id int64, description string, hours decimal.Decimal) error {
	return r.queries.UpdateTimeEntry(ctx, id, description, hours)
}

func (r *SQLiteRepository) DeleteUnbilled(ctx context.Context, ids []int64) error {
	return r.queries.DeleteUnbilled(ctx, ids)
}

func (r *SQLiteRepository) ProjectedEntriesInRange(ctx context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.ProjectedEntry, error) {
	return r.queries.ProjectedEntriesInRange(ctx, clientIDs, start, end)
}

func (r *SQLiteRepository) UpsertProjectedEntry(ctx context.Context, clientID int64, date core.Date, hours decimal.Decimal) error {
	return r.queries.UpsertProjectedEntry(ctx, clientID, date, hours)
}

func (r *SQLiteRepository) DeleteProjectedEntry(ctx context.Context, clientID int64, date core.Date) error {
	return r.queries.DeleteProjectedEntry(ctx, clientID, date)
}

func (r *SQLiteRepository) ProjectedEntryExists(ctx context.Context, clientID int64, date core.Date) (bool, error) {
	return r.queries.ProjectedEntryExists(ctx, clientID, date)
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (*core.Invoice, error) {
	return r.queries.GetInvoice(ctx, id)
}

func (r *SQLiteRepository) LockInvoiceConversionRate(ctx context.Context, id int64, rate decimal.Decimal) error {
	return r.queries.LockInvoiceConversionRate(ctx, id, rate)
}

func (r *SQLiteRepository) RecordInvoiceEmailSend(ctx context.Context, invoiceID int64, sentAt time.Time) error {
	return r.queries.RecordInvoiceEmailSend(ctx, invoiceID, sentAt)
}
