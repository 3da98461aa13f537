package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) ListBillableClients(ctx context.Context) ([]core.Client, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(email_from, ''), currency, COALESCE(hourly_rate, '0'), is_active
		FROM clients
		WHERE is_active = 1 AND hourly_rate IS NOT NULL AND CAST(hourly_rate AS REAL) > 0
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query billable clients: %w", err)
	}
	defer rows.Close()

	var clients []core.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (q *Queries) GetClient(ctx context.Context, id int64) (*core.Client, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(email_from, ''), currency, COALESCE(hourly_rate, '0'), is_active
		FROM clients
		WHERE id = ?`, id)

	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *Queries) TimeEntriesInRange(ctx context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.TimeEntry, error) {
	grouped := make(map[core.CellKey][]core.TimeEntry)
	if len(clientIDs) == 0 {
		return grouped, nil
	}

	args := make([]any, 0, len(clientIDs)+2)
	for _, id := range clientIDs {
		args = append(args, id)
	}
	args = append(args, start.String(), end.String())

	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, client_id, invoice_line_id, date, hours, description
		FROM time_entries
		WHERE client_id IN (%s) AND date BETWEEN ? AND ?
		ORDER BY date, id`, placeholders(len(clientIDs))), args...)
	if err != nil {
		return nil, fmt.Errorf("query time entries in range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		grouped[e.Cell()] = append(grouped[e.Cell()], e)
	}
	return grouped, rows.Err()
}

func (q *Queries) SumHours(ctx context.Context, clientID int64, date core.Date) (decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT hours FROM time_entries WHERE client_id = ? AND date = ?`,
		clientID, date.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("query hours sum: %w", err)
	}
	defer rows.Close()

	// Summed in Go so the decimal representation stays exact.
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan hours: %w", err)
		}
		h, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse hours %q: %w", raw, err)
		}
		total = total.Add(h)
	}
	return total, rows.Err()
}

func (q *Queries) GetTimeEntry(ctx context.Context, id int64) (*core.TimeEntry, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, client_id, invoice_line_id, date, hours, description
		FROM time_entries
		WHERE id = ?`, id)

	e, err := scanTimeEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *Queries) CreateTimeEntry(ctx context.Context, clientID int64, date core.Date, description string, hours decimal.Decimal) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO time_entries (client_id, date, hours, description)
		VALUES (?, ?, ?, ?)`,
		clientID, date.String(), hours.String(), description)
	if err != nil {
		return 0, fmt.Errorf("insert time entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("time entry insert id: %w", err)
	}
	return id, nil
}

func (q *Queries) UpdateTimeEntry(ctx context.Context, id int64, description string, hours decimal.Decimal) error {
	// The invoice_line_id guard makes billed rows immune even if a caller
	// skipped the IsBilled check.
	_, err := q.db.ExecContext(ctx, `
		UPDATE time_entries
		SET description = ?, hours = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND invoice_line_id IS NULL`,
		description, hours.String(), id)
	if err != nil {
		return fmt.Errorf("update time entry: %w", err)
	}
	return nil
}

func (q *Queries) DeleteUnbilled(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := q.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM time_entries
		WHERE id IN (%s) AND invoice_line_id IS NULL`, placeholders(len(ids))), args...)
	if err != nil {
		return fmt.Errorf("delete unbilled time entries: %w", err)
	}
	return nil
}

func (q *Queries) ProjectedEntriesInRange(ctx context.Context, clientIDs []int64, start, end core.Date) (map[core.CellKey][]core.ProjectedEntry, error) {
	grouped := make(map[core.CellKey][]core.ProjectedEntry)
	if len(clientIDs) == 0 {
		return grouped, nil
	}

	args := make([]any, 0, len(clientIDs)+2)
	for _, id := range clientIDs {
		args = append(args, id)
	}
	args = append(args, start.String(), end.String())

	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, client_id, date, hours
		FROM projected_entries
		WHERE client_id IN (%s) AND date BETWEEN ? AND ?
		ORDER BY date, id`, placeholders(len(clientIDs))), args...)
	if err != nil {
		return nil, fmt.Errorf("query projected entries in range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p       core.ProjectedEntry
			rawDate string
			raw     string
		)
		if err := rows.Scan(&p.ID, &p.ClientID, &rawDate, &raw); err != nil {
			return nil, fmt.Errorf("scan projected entry: %w", err)
		}
		if p.Date, err = core.ParseDate(rawDate); err != nil {
			return nil, fmt.Errorf("parse projected entry date %q: %w", rawDate, err)
		}
		if p.Hours, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("parse projected hours %q: %w", raw, err)
		}
		grouped[p.Cell()] = append(grouped[p.Cell()], p)
	}
	return grouped, rows.Err()
}

func (q *Queries) UpsertProjectedEntry(ctx context.Context, clientID int64, date core.Date, hours decimal.Decimal) error {
	// Single atomic statement; the unique (client_id, date) constraint
	// resolves concurrent upserts without a check-then-insert race.
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO projected_entries (client_id, date, hours)
		VALUES (?, ?, ?)
		ON CONFLICT (client_id, date)
		DO UPDATE SET hours = excluded.hours, updated_at = CURRENT_TIMESTAMP`,
		clientID, date.String(), hours.String())
	if err != nil {
		return fmt.Errorf("upsert projected entry: %w", err)
	}
	return nil
}

func (q *Queries) DeleteProjectedEntry(ctx context.Context, clientID int64, date core.Date) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM projected_entries WHERE client_id = ? AND date = ?`,
		clientID, date.String())
	if err != nil {
		return fmt.Errorf("delete projected entry: %w", err)
	}
	return nil
}

func (q *Queries) ProjectedEntryExists(ctx context.Context, clientID int64, date core.Date) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, `
		SELECT 1 FROM projected_entries WHERE client_id = ? AND date = ?`,
		clientID, date.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query projected entry exists: %w", err)
	}
	return true, nil
}

func (q *Queries) GetInvoice(ctx context.Context, id int64) (*core.Invoice, error) {
	var (
		inv     core.Invoice
		rawRate sql.NullString
		rawDue  sql.NullString
		rawCur  string
		note    sql.NullString
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, client_id, paid, currency, conversion_rate, due_date, note
		FROM invoices
		WHERE id = ?`, id).
		Scan(&inv.ID, &inv.ClientID, &inv.Paid, &rawCur, &rawRate, &rawDue, &note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	if inv.Currency, err = core.ParseCurrency(rawCur); err != nil {
		return nil, fmt.Errorf("invoice %d currency %q: %w", id, rawCur, err)
	}
	inv.Note = note.String
	if rawRate.Valid {
		rate, err := decimal.NewFromString(rawRate.String)
		if err != nil {
			return nil, fmt.Errorf("parse conversion rate %q: %w", rawRate.String, err)
		}
		inv.ConversionRate = &rate
	}
	if rawDue.Valid {
		due, err := core.ParseDate(rawDue.String)
		if err != nil {
			return nil, fmt.Errorf("parse due date %q: %w", rawDue.String, err)
		}
		inv.DueDate = &due
	}

	if inv.Lines, err = q.invoiceLines(ctx, id); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (q *Queries) invoiceLines(ctx context.Context, invoiceID int64) ([]core.InvoiceLine, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, invoice_id, description, date, type, amount, hourly_rate, hours
		FROM invoice_lines
		WHERE invoice_id = ?
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []core.InvoiceLine
	for rows.Next() {
		var (
			l                      core.InvoiceLine
			rawDate                sql.NullString
			rawType                string
			amount, rate, hoursRaw sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &rawDate, &rawType, &amount, &rate, &hoursRaw); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		l.Type = core.InvoiceLineType(rawType)
		if rawDate.Valid {
			d, err := core.ParseDate(rawDate.String)
			if err != nil {
				return nil, fmt.Errorf("parse invoice line date %q: %w", rawDate.String, err)
			}
			l.Date = &d
		}
		if l.Amount, err = nullDecimal(amount); err != nil {
			return nil, err
		}
		if l.HourlyRate, err = nullDecimal(rate); err != nil {
			return nil, err
		}
		if l.Hours, err = nullDecimal(hoursRaw); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (q *Queries) LockInvoiceConversionRate(ctx context.Context, id int64, rate decimal.Decimal) error {
	// Already-sent invoices keep their historical rate.
	_, err := q.db.ExecContext(ctx, `
		UPDATE invoices
		SET conversion_rate = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND conversion_rate IS NULL`,
		rate.String(), id)
	if err != nil {
		return fmt.Errorf("lock invoice conversion rate: %w", err)
	}
	return nil
}

func (q *Queries) RecordInvoiceEmailSend(ctx context.Context, invoiceID int64, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO invoice_email_sends (invoice_id, sent_at) VALUES (?, ?)`,
		invoiceID, sentAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record invoice email send: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (core.Client, error) {
	var (
		c       core.Client
		rawCur  string
		rawRate string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.EmailFrom, &rawCur, &rawRate, &c.IsActive); err != nil {
		return core.Client{}, err
	}

	cur, err := core.ParseCurrency(rawCur)
	if err != nil {
		return core.Client{}, fmt.Errorf("client %d currency %q: %w", c.ID, rawCur, err)
	}
	c.Currency = cur

	if c.HourlyRate, err = decimal.NewFromString(rawRate); err != nil {
		return core.Client{}, fmt.Errorf("client %d hourly rate %q: %w", c.ID, rawRate, err)
	}
	return c, nil
}

func scanTimeEntry(row rowScanner) (core.TimeEntry, error) {
	var (
		e       core.TimeEntry
		lineID  sql.NullInt64
		rawDate string
		raw     string
	)
	if err := row.Scan(&e.ID, &e.ClientID, &lineID, &rawDate, &raw, &e.Description); err != nil {
		return core.TimeEntry{}, err
	}
	if lineID.Valid {
		id := lineID.Int64
		e.InvoiceLineID = &id
	}

	var err error
	if e.Date, err = core.ParseDate(rawDate); err != nil {
		return core.TimeEntry{}, fmt.Errorf("parse time entry date %q: %w", rawDate, err)
	}
	if e.Hours, err = decimal.NewFromString(raw); err != nil {
		return core.TimeEntry{}, fmt.Errorf("parse time entry hours %q: %w", raw, err)
	}
	return e, nil
}

func nullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", v.String, err)
	}
	return &d, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
