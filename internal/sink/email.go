// Package sink defines the fire-and-forget external collaborators the
// payments core hands finished work to: email notifications and receipt
// rendering. Neither is owned by this core; each ships exactly one
// implementation that logs instead of actually sending mail or
// rendering a PDF, a thin default behind a small interface.
package sink

import (
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/rs/zerolog/log"
)

// EmailSink delivers a PaymentReceivedEmail. Failures must never
// propagate back into the callback dispatcher's response path.
type EmailSink interface {
	SendPaymentReceived(email domain.PaymentReceivedEmail) error
}

// LoggingEmailSink is the shipped EmailSink: it records the payload via
// zerolog. A real deployment supplies its own mailer implementing the
// same interface.
type LoggingEmailSink struct{}

// NewLoggingEmailSink builds a LoggingEmailSink.
func NewLoggingEmailSink() *LoggingEmailSink {
	return &LoggingEmailSink{}
}

// SendPaymentReceived logs the email payload at Info level instead of
// dispatching it. The caller treats any error as non-fatal.
func (s *LoggingEmailSink) SendPaymentReceived(email domain.PaymentReceivedEmail) error {
	log.Info().
		Str("tenant_name", email.TenantName).
		Str("tenant_email", email.TenantEmail).
		Str("amount", email.Amount).
		Str("receipt_number", email.ReceiptNumber).
		Str("property_name", email.PropertyName).
		Str("unit_number", email.UnitNumber).
		Str("for_period", email.ForPeriod).
		Time("payment_date", email.PaymentDate).
		Msg("payment received email (logged, not sent)")
	return nil
}
