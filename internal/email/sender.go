package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/mcastellanos/procadena/internal/config"
)

// Sender delivers notification emails over SMTP.
type Sender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// Send delivers one message. htmlBody may be empty, in which case the
// message goes out as plain text only.
func (s *Sender) Send(to, subject, body, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
