package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidHours    = errors.New("invalid hours")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrUnknownCurrency = errors.New("unknown currency")
)

type (
	// Date is a calendar day without a time component. It is a plain
	// comparable struct so it can be used directly as a map key.
	Date struct {
		Year  int
		Month time.Month
		Day   int
	}

	// CellKey addresses one cell of the tracking grid: one client on one
	// day. Composite struct on purpose, never a concatenated string.
	CellKey struct {
		ClientID int64
		Date     Date
	}

	Client struct {
		ID        int64
		Name      string
		Email     string
		EmailFrom string
		Currency  Currency
		// HourlyRate is zero when the client has no rate configured.
		HourlyRate decimal.Decimal
		IsActive   bool
	}

	TimeEntry struct {
		ID       int64
		ClientID int64
		// InvoiceLineID is set once the entry has been pulled onto an
		// invoice line; from then on the entry is immutable to tracking.
		InvoiceLineID *int64
		Date          Date
		Hours         decimal.Decimal
		Description   string
	}

	ProjectedEntry struct {
		ID       int64
		ClientID int64
		Date     Date
		Hours    decimal.Decimal
	}

	// EditedEntry is one submitted line item of a cell edit. ID zero
	// means the line is new and a TimeEntry must be created for it.
	EditedEntry struct {
		ID          int64
		Description string
		Hours       decimal.Decimal
	}
)

// NewDate creates a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// Format formats the date with a time.Time layout.
func (d Date) Format(layout string) string {
	return d.Time().Format(layout)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Validate() error {
	if d.Month < time.January || d.Month > time.December {
		return ErrInvalidMonth
	}
	if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// AddDays returns the date n days later (earlier for negative n),
// normalizing across month and year boundaries.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// MonthStart returns the first day of the given month.
func MonthStart(year int, month time.Month) Date {
	return Date{Year: year, Month: month, Day: 1}
}

// MonthEnd returns the last day of the given month.
func MonthEnd(year int, month time.Month) Date {
	return Date{Year: year, Month: month, Day: DaysInMonth(year, month)}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month normalizes to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Billable reports whether the client is eligible for time tracking:
// active with a positive hourly rate.
func (c Client) Billable() bool {
	return c.IsActive && c.HourlyRate.IsPositive()
}

// IsBilled reports whether the entry has been linked to an invoice line.
// Billed entries must never be updated or deleted by cell edits.
func (e TimeEntry) IsBilled() bool {
	return e.InvoiceLineID != nil
}

// Value returns the entry's worth at the given hourly rate.
func (e TimeEntry) Value(hourlyRate decimal.Decimal) decimal.Decimal {
	return e.Hours.Mul(hourlyRate)
}

// Cell returns the grid cell the entry belongs to.
func (e TimeEntry) Cell() CellKey {
	return CellKey{ClientID: e.ClientID, Date: e.Date}
}

// Cell returns the grid cell the projection belongs to.
func (p ProjectedEntry) Cell() CellKey {
	return CellKey{ClientID: p.ClientID, Date: p.Date}
}

func (e EditedEntry) Validate() error {
	if e.Hours.IsNegative() {
		return ErrInvalidHours
	}
	return nil
}
