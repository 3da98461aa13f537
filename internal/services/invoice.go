package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timebook/internal/core"
	"timebook/internal/log"
	"timebook/internal/mail"
	"timebook/internal/storage"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrClientNotFound  = errors.New("client not found")
)

// EmailQueue is the outbound port for invoice email delivery requests.
type EmailQueue interface {
	PublishInvoiceEmail(ctx context.Context, invoiceID int64, test bool) error
}

// InvoiceService queues invoice emails for asynchronous delivery. The
// conversion rate gets locked onto the invoice at queue time so later
// rate-table changes never alter a sent invoice's client-currency total.
type InvoiceService struct {
	store  storage.Store
	queue  EmailQueue
	logger *log.Logger
}

func NewInvoiceService(store storage.Store, queue EmailQueue, logger *log.Logger) *InvoiceService {
	return &InvoiceService{
		store:  store,
		queue:  queue,
		logger: logger.WithComponent(log.ComponentInvoice),
	}
}

// QueueInvoiceEmail locks the invoice's conversion rate if needed and
// publishes a delivery request. Test sends go to the admin address but
// are recorded like real ones.
func (s *InvoiceService) QueueInvoiceEmail(ctx context.Context, invoiceID int64, test bool) error {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	if inv == nil {
		return ErrInvoiceNotFound
	}

	if inv.ConversionRate == nil {
		if err := s.store.LockInvoiceConversionRate(ctx, invoiceID, inv.Currency.FromUsdRate()); err != nil {
			return fmt.Errorf("lock conversion rate: %w", err)
		}
	}

	if s.queue == nil {
		return errors.New("email queue not configured")
	}
	if err := s.queue.PublishInvoiceEmail(ctx, invoiceID, test); err != nil {
		return fmt.Errorf("queue invoice email: %w", err)
	}

	s.logger.InfoContext(ctx, "Invoice email queued",
		log.FieldInvoiceID, invoiceID,
		"test", test)
	return nil
}

// InvoiceMailer is the worker-side handler: it loads the invoice,
// composes a plain-text summary, delivers it and records the send.
type InvoiceMailer struct {
	store       storage.Store
	mailer      mail.Mailer
	adminEmail  string
	defaultFrom string
	logger      *log.Logger
	now         func() time.Time
}

func NewInvoiceMailer(store storage.Store, mailer mail.Mailer, adminEmail, defaultFrom string, logger *log.Logger) *InvoiceMailer {
	return &InvoiceMailer{
		store:       store,
		mailer:      mailer,
		adminEmail:  adminEmail,
		defaultFrom: defaultFrom,
		logger:      logger.WithComponent(log.ComponentMailer),
		now:         time.Now,
	}
}

// HandleInvoiceEmail processes one queued delivery request.
func (m *InvoiceMailer) HandleInvoiceEmail(ctx context.Context, invoiceID int64, test bool) error {
	inv, err := m.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	if inv == nil {
		return ErrInvoiceNotFound
	}

	client, err := m.store.GetClient(ctx, inv.ClientID)
	if err != nil {
		return fmt.Errorf("load client %d: %w", inv.ClientID, err)
	}
	if client == nil {
		return ErrClientNotFound
	}

	to := client.Email
	if test {
		to = m.adminEmail
	}
	from := client.EmailFrom
	if from == "" {
		from = m.defaultFrom
	}

	msg := mail.Message{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("Invoice #%d", inv.ID),
		Body:    composeInvoiceBody(inv, client),
	}
	if err := m.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send invoice %d: %w", inv.ID, err)
	}

	if err := m.store.RecordInvoiceEmailSend(ctx, inv.ID, m.now()); err != nil {
		return fmt.Errorf("record email send: %w", err)
	}

	m.logger.InfoContext(ctx, "Invoice email delivered",
		log.FieldInvoiceID, inv.ID,
		"to", to,
		"test", test)
	return nil
}

func composeInvoiceBody(inv *core.Invoice, client *core.Client) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice #%d for %s\n\n", inv.ID, client.Name)

	for _, line := range inv.Lines {
		fmt.Fprintf(&b, "- %s: %s\n", line.Description, core.USD.Format(line.Subtotal()))
	}

	fmt.Fprintf(&b, "\nTotal: %s", inv.FormattedTotalUsd())
	if !inv.Currency.IsUsd() {
		fmt.Fprintf(&b, " (%s)", inv.FormattedTotal())
	}
	b.WriteString("\n")

	if inv.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s\n", inv.DueDate.Format("January 2, 2006"))
	}
	if inv.Note != "" {
		fmt.Fprintf(&b, "\n%s\n", inv.Note)
	}
	return b.String()
}
