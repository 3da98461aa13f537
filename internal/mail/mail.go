// Package mail defines the outbound mail port and its implementations.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"timebook/internal/log"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer submits messages to an SMTP relay.
type SMTPMailer struct {
	addr     string
	username string
	password string
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the given host:port relay. Empty
// username disables authentication.
func NewSMTPMailer(addr, username, password string) *SMTPMailer {
	return &SMTPMailer{addr: addr, username: username, password: password}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	var auth smtp.Auth
	if m.username != "" {
		host := m.addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(m.addr, auth, msg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer records messages instead of delivering them. Default for
// local runs and the double in tests.
type LogMailer struct {
	logger *log.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{logger: logger.WithComponent(log.ComponentMailer)}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Mail logged instead of sent",
		"to", msg.To,
		"subject", msg.Subject)
	return nil
}

// Sent returns the messages recorded so far.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
