// Package email delivers consultant-facing notification mails.
package email

import (
	"context"

	"wacrm_backend/platform/config"
)

// Sender delivers the transactional emails the CRM produces.
type Sender interface {
	// SendHandoffNotification alerts a consultant that a lead was handed
	// off and needs human follow-up.
	SendHandoffNotification(ctx context.Context, toEmail, contactName, temperature string, score int, summary string) error
	// SendAppointmentConfirmation notifies a consultant about a booked
	// consultation slot.
	SendAppointmentConfirmation(ctx context.Context, toEmail, contactName, contactPhone, scheduledAt string) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendHandoffNotification(context.Context, string, string, string, int, string) error {
	return nil
}

func (NoopSender) SendAppointmentConfirmation(context.Context, string, string, string, string) error {
	return nil
}

// NewSender builds a Sender from configuration, falling back to a noop
// when email is disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
