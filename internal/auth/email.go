package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/rs/zerolog"
)

// EmailService handles sending emails via SMTP.
type EmailService struct {
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	fromEmail    string
	resetBaseURL string
	logger       zerolog.Logger
}

// EmailConfig holds SMTP configuration.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	ResetBaseURL string
}

// NewEmailService creates an email service.
func NewEmailService(cfg EmailConfig, logger zerolog.Logger) *EmailService {
	resetBaseURL := cfg.ResetBaseURL
	if resetBaseURL == "" {
		resetBaseURL = "https://onlymaths.app/reset-password"
	}
	return &EmailService{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.SMTPUsername,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.FromEmail,
		resetBaseURL: resetBaseURL,
		logger:       logger.With().Str("component", "email").Logger(),
	}
}

var resetTemplate = template.Must(template.New("reset").Parse(`Subject: Password Reset Request

Hello,

You requested a password reset for your OnlyMaths account.

Click the link below to reset your password:
{{.ResetURL}}

This link will expire in 1 hour.

If you did not request this, please ignore this email.

The OnlyMaths Team`))

// SendPasswordResetEmail sends a password reset email with the reset token.
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error {
	if e.smtpHost == "" || e.smtpPort == 0 {
		return fmt.Errorf("email service not configured")
	}

	resetURL := fmt.Sprintf("%s?token=%s", e.resetBaseURL, resetToken)

	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, map[string]string{
		"ResetURL": resetURL,
	}); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)
	auth := smtp.PlainAuth("", e.smtpUsername, e.smtpPassword, e.smtpHost)

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\n%s\r\n", e.fromEmail, toEmail, body.String()))

	if err := smtp.SendMail(addr, auth, e.fromEmail, []string{toEmail}, msg); err != nil {
		e.logger.Error().Err(err).Str("to", toEmail).Msg("failed to send password reset email")
		return fmt.Errorf("send email: %w", err)
	}

	e.logger.Info().Str("to", toEmail).Msg("password reset email sent")
	return nil
}
