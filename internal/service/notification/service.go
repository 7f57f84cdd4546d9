package notification

import (
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/mediqo/booking-api/internal/model"
)

// Service delivers user-facing notifications. Delivery failures are the
// caller's to log; they must never fail the triggering operation.
type Service interface {
	AppointmentBooked(user *model.User, doctor *model.Doctor, apt *model.Appointment) error
	AppointmentConfirmed(user *model.User, apt *model.Appointment) error
	AppointmentCancelled(user *model.User, apt *model.Appointment) error
	PasswordReset(user *model.User, token string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

func NewEmailService(cfg SMTPConfig, logger zerolog.Logger) Service {
	return &emailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *emailService) send(to, subject, body string) error {
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

func (s *emailService) AppointmentBooked(user *model.User, doctor *model.Doctor, apt *model.Appointment) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with %s on %s at %s has been booked and is pending confirmation.\n",
		user.Name, doctor.Name, apt.Date.Format("2006-01-02"), apt.Slot,
	)
	return s.send(user.Email, "Appointment booked", body)
}

func (s *emailService) AppointmentConfirmed(user *model.User, apt *model.Appointment) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment on %s at %s is confirmed.\n",
		user.Name, apt.Date.Format("2006-01-02"), apt.Slot,
	)
	return s.send(user.Email, "Appointment confirmed", body)
}

func (s *emailService) AppointmentCancelled(user *model.User, apt *model.Appointment) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment on %s at %s has been cancelled.\n",
		user.Name, apt.Date.Format("2006-01-02"), apt.Slot,
	)
	return s.send(user.Email, "Appointment cancelled", body)
}

func (s *emailService) PasswordReset(user *model.User, token string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nUse this token to reset your password: %s\nIt expires in one hour.\n",
		user.Name, token,
	)
	return s.send(user.Email, "Password reset", body)
}

// Noop drops every notification; used when SMTP is not configured.
type Noop struct{}

func (Noop) AppointmentBooked(*model.User, *model.Doctor, *model.Appointment) error { return nil }
func (Noop) AppointmentConfirmed(*model.User, *model.Appointment) error             { return nil }
func (Noop) AppointmentCancelled(*model.User, *model.Appointment) error             { return nil }
func (Noop) PasswordReset(*model.User, string) error                                { return nil }
