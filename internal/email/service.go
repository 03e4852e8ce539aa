package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/fieldserve/booking-api/config"
	"github.com/fieldserve/booking-api/internal/model"
)

type Service interface {
	SendAssignmentNotification(ctx context.Context, to, employeeName string, booking *model.Booking) error
	SendBookingConfirmation(ctx context.Context, to string, booking *model.Booking) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender returns a gomail-backed sender, or a noop sender when SMTP is
// not configured so callers never have to branch.
func NewSMTPSender(cfg config.SMTPConfig) Service {
	if cfg.Host == "" {
		return NoopSender{}
	}
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) SendAssignmentNotification(ctx context.Context, to, employeeName string, booking *model.Booking) error {
	subject := fmt.Sprintf("New job assignment: %s", booking.ServiceName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have been assigned to a job.\n\nService: %s\nCustomer: %s\nAddress: %s\nScheduled: %s\n\nOpen the app to accept or decline.",
		employeeName,
		booking.ServiceName,
		booking.CustomerName,
		booking.Address,
		booking.ScheduledAt.Format("Mon, 02 Jan 2006 15:04"),
	)
	return s.send(to, subject, body)
}

func (s *smtpSender) SendBookingConfirmation(ctx context.Context, to string, booking *model.Booking) error {
	subject := fmt.Sprintf("Booking confirmed: %s", booking.ServiceName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking is confirmed.\n\nService: %s\nAddress: %s\nScheduled: %s\nTotal: $%.2f",
		booking.CustomerName,
		booking.ServiceName,
		booking.Address,
		booking.ScheduledAt.Format("Mon, 02 Jan 2006 15:04"),
		booking.CanonicalPrice(),
	)
	return s.send(to, subject, body)
}

func (s *smtpSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopSender is used when no SMTP host is configured.
type NoopSender struct{}

func (NoopSender) SendAssignmentNotification(ctx context.Context, to, employeeName string, booking *model.Booking) error {
	return nil
}

func (NoopSender) SendBookingConfirmation(ctx context.Context, to string, booking *model.Booking) error {
	return nil
}
