package core

import "github.com/shopspring/decimal"

// InvoiceLineType distinguishes fixed-amount lines from hourly lines.
type InvoiceLineType string

const (
	LineTypeFixed  InvoiceLineType = "fixed"
	LineTypeHourly InvoiceLineType = "hourly"
)

func (t InvoiceLineType) Label() string {
	if t == LineTypeHourly {
		return "Hourly"
	}
	return "Fixed Amount"
}

type (
	// InvoiceLine is one billed position. Fixed lines carry Amount;
	// hourly lines carry HourlyRate and Hours. All amounts are USD.
	InvoiceLine struct {
		ID          int64
		InvoiceID   int64
		Description string
		Date        *Date
		Type        InvoiceLineType
		Amount      *decimal.Decimal
		HourlyRate  *decimal.Decimal
		Hours       *decimal.Decimal
	}

	Invoice struct {
		ID       int64
		ClientID int64
		Paid     bool
		Currency Currency
		// ConversionRate is the reverse rate locked at send time. Nil
		// means the invoice has not been sent and the current fixed
		// rate applies.
		ConversionRate *decimal.Decimal
		DueDate        *Date
		Note           string
		Lines          []InvoiceLine
	}
)

// Subtotal returns the line's value: the fixed amount when set, else
// rate times hours, else zero.
func (l InvoiceLine) Subtotal() decimal.Decimal {
	if l.Amount != nil {
		return *l.Amount
	}
	if l.HourlyRate != nil && l.Hours != nil {
		return l.HourlyRate.Mul(*l.Hours)
	}
	return decimal.Zero
}

// Total sums all line subtotals in USD.
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// TotalHours sums the hours of all hourly lines.
func (inv Invoice) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		if l.Hours != nil {
			total = total.Add(*l.Hours)
		}
	}
	return total
}

// TotalInClientCurrency converts the USD total using the locked rate if
// the invoice carries one, otherwise the currency's current reverse rate.
func (inv Invoice) TotalInClientCurrency() decimal.Decimal {
	rate := inv.Currency.FromUsdRate()
	if inv.ConversionRate != nil {
		rate = *inv.ConversionRate
	}
	return inv.Total().Mul(rate).Round(2)
}

// FormattedTotal renders the client-currency total for display.
func (inv Invoice) FormattedTotal() string {
	return inv.Currency.Format(inv.TotalInClientCurrency())
}

// FormattedTotalUsd renders the USD total for display.
func (inv Invoice) FormattedTotalUsd() string {
	return USD.Format(inv.Total())
}
