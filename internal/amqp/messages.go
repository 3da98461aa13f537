package amqp

import (
	"encoding/json"
	"time"
)

// InvoiceEmailMessage asks the mailer worker to deliver one invoice
// email. It carries only the id; the worker loads the invoice from the
// database so the payload never goes stale.
type InvoiceEmailMessage struct {
	InvoiceID int64     `json:"invoice_id"`
	Test      bool      `json:"test"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvoiceEmailMessage(invoiceID int64, test bool) *InvoiceEmailMessage {
	return &InvoiceEmailMessage{
		InvoiceID: invoiceID,
		Test:      test,
		Timestamp: time.Now(),
	}
}

func (m *InvoiceEmailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvoiceEmailMessageFromJSON(data []byte) (*InvoiceEmailMessage, error) {
	var msg InvoiceEmailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
