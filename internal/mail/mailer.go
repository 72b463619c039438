package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers the password-reset mail. Handlers depend on the interface
// so tests can substitute a fake.
type Sender interface {
	SendPasswordReset(to, resetURL string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Request")
	msg.SetBody("text/plain", fmt.Sprintf(
		"To reset your password please visit the following link: %s\n\nIf you did not make this request please ignore this email.\n",
		resetURL,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send failed: %w", err)
	}
	return nil
}
