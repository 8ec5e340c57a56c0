package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender with the given credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendHandoffNotification(ctx context.Context, toEmail, contactName, temperature string, score int, summary string) error {
	name := contactName
	if name == "" {
		name = "Lead baru"
	}
	content, err := renderEmailTemplate("handoff.html", handoffEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lead handoff",
			Heading: fmt.Sprintf("%s butuh follow-up", name),
		},
		ContactName: name,
		Temperature: strings.ToUpper(temperature),
		Score:       score,
		Summary:     summary,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectHandoffFmt, name), content)
}

func (s *SMTPSender) SendAppointmentConfirmation(ctx context.Context, toEmail, contactName, contactPhone, scheduledAt string) error {
	name := contactName
	if name == "" {
		name = "Lead baru"
	}
	content, err := renderEmailTemplate("appointment.html", appointmentEmailData{
		baseEmailData: baseEmailData{
			Title:   "Konsultasi terjadwal",
			Heading: fmt.Sprintf("Konsultasi baru dengan %s", name),
		},
		ContactName:  name,
		ContactPhone: contactPhone,
		ScheduledAt:  scheduledAt,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectAppointmentFmt, name), content)
}
