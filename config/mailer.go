package config

import (
	"crypto/tls"
	"errors"

	mail "github.com/go-mail/mail/v2"
)

// ErrMailNotConfigured is returned when SMTP_HOST or SMTP_FROM is missing.
var ErrMailNotConfigured = errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")

// Mailer sends HTML mail through a go-mail dialer.
type Mailer struct {
	settings MailSettings
}

func NewMailer(settings MailSettings) *Mailer {
	return &Mailer{settings: settings}
}

// Configured reports whether the mailer has enough settings to dial out.
func (m *Mailer) Configured() bool {
	return m != nil && m.settings.Host != "" && m.settings.From != ""
}

func (m *Mailer) SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !m.Configured() {
		return ErrMailNotConfigured
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.settings.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	port := m.settings.Port
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(m.settings.Host, port, m.settings.User, m.settings.Password)

	// STARTTLS is mandatory on 587 for the usual relays (Gmail, Office365).
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         m.settings.Host,
		InsecureSkipVerify: m.settings.SkipTLSVerify, // dev only
	}

	return d.DialAndSend(msg)
}
