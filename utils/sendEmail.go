package utils

import (
	"fmt"
	"strconv"

	"retail-backoffice/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends operator notifications over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailerFromEnv returns nil when SMTP_HOST is not configured.
func NewMailerFromEnv() *Mailer {
	mailHost := config.GetEnv("SMTP_HOST")
	if mailHost == "" {
		config.Logger.Info("SMTP_HOST not set, email notifications disabled")
		return nil
	}

	mailPort := config.GetEnv("SMTP_PORT")
	port, err := strconv.Atoi(mailPort)
	if err != nil {
		config.Logger.Error("Invalid SMTP_PORT value, defaulting to port 25",
			zap.String("provided_port", mailPort),
			zap.Error(err),
		)
		port = 25
	}

	config.Logger.Info("Mailer initialized successfully", zap.String("host", mailHost))
	return &Mailer{
		dialer: gomail.NewDialer(mailHost, port, config.GetEnv("SMTP_USER"), config.GetEnv("SMTP_PASSWORD")),
		from:   config.GetEnv("SMTP_FROM"),
	}
}

func (m *Mailer) SendEmail(to, subject, body string) error {
	if m == nil || m.dialer == nil {
		return fmt.Errorf("mailer is not initialized")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		config.Logger.Error("Failed to send email via SMTP",
			zap.String("to_email", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	config.Logger.Info("Email sent successfully",
		zap.String("to_email", to),
		zap.String("subject", subject),
	)
	return nil
}
