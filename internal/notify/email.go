// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/models"
)

// Email delivery error codes, recorded on the notification row and used
// to decide whether a retry is worthwhile.
const (
	errorCodeAuthFailed        = "AUTH_FAILED"
	errorCodeConnectionFailed  = "CONNECTION_FAILED"
	errorCodeTimeout           = "TIMEOUT"
	errorCodeRecipientNotFound = "RECIPIENT_NOT_FOUND"
	errorCodeRateLimited       = "RATE_LIMITED"
	errorCodeContentTooLarge   = "CONTENT_TOO_LARGE"
	errorCodeUnknown           = "UNKNOWN"
)

// emailWorthy lists the notification types that warrant an email on top
// of the in-app feed entry. Routine status churn stays in-app only.
var emailWorthy = map[string]bool{
	models.NotificationTypeJobAssigned:         true,
	models.NotificationTypeServiceRequest:      true,
	models.NotificationTypeInspectionScheduled: true,
	models.NotificationTypeBilling:             true,
	models.NotificationTypeSystem:              true,
}

const defaultSMTPTimeout = 30 * time.Second

// EmailChannel delivers notifications as plain-text email over SMTP.
type EmailChannel struct {
	cfg config.EmailConfig
}

// NewEmailChannel creates an SMTP delivery channel.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &EmailChannel{cfg: cfg}
}

// Name returns the channel identifier.
func (c *EmailChannel) Name() string {
	return ChannelEmail
}

// Applies restricts email to enabled configs, active users with an
// address, and notification types worth an email.
func (c *EmailChannel) Applies(n *models.Notification, user *models.User) bool {
	if !c.cfg.Enabled || user == nil {
		return false
	}
	return user.IsActive && user.Email != "" && emailWorthy[n.Type]
}

// Send delivers the notification to the user's address.
func (c *EmailChannel) Send(ctx context.Context, n *models.Notification, user *models.User) error {
	msg := c.buildMessage(n, user)
	if err := c.sendSMTP(ctx, user.Email, msg); err != nil {
		code := classifyEmailError(err)
		return &DeliveryError{Code: code, Transient: isTransientEmailError(code), Err: err}
	}
	return nil
}

// buildMessage constructs the MIME message with headers.
func (c *EmailChannel) buildMessage(n *models.Notification, user *models.User) string {
	var msg strings.Builder

	fromName := c.cfg.FromName
	if fromName == "" {
		fromName = "Custoda"
	}

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, c.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", user.Email))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", n.Title))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("X-Custoda-Notification: %s\r\n", n.ID))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Hi %s,\r\n\r\n", user.FirstName))
	msg.WriteString(n.Body)
	msg.WriteString("\r\n")

	return msg.String()
}

// sendSMTP performs the SMTP conversation.
func (c *EmailChannel) sendSMTP(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)

	dialer := &net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, c.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if c.cfg.StartTLS {
		tlsConfig := &tls.Config{
			ServerName: c.cfg.SMTPHost,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if c.cfg.Username != "" && c.cfg.Password != "" {
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(c.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Quit failures after a delivered message are not delivery failures.
	_ = client.Quit()
	return nil
}

// classifyEmailError maps an SMTP error onto an error code.
func classifyEmailError(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "auth") {
		return errorCodeAuthFailed
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "connect") {
		return errorCodeConnectionFailed
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return errorCodeTimeout
	}
	if strings.Contains(errStr, "recipient") || strings.Contains(errStr, "mailbox") {
		return errorCodeRecipientNotFound
	}
	if strings.Contains(errStr, "rate") || strings.Contains(errStr, "limit") {
		return errorCodeRateLimited
	}
	if strings.Contains(errStr, "too large") || strings.Contains(errStr, "size") {
		return errorCodeContentTooLarge
	}
	return errorCodeUnknown
}

// isTransientEmailError reports whether the classified error is worth
// retrying on the next dispatch round.
func isTransientEmailError(code string) bool {
	switch code {
	case errorCodeConnectionFailed, errorCodeTimeout, errorCodeRateLimited:
		return true
	default:
		return false
	}
}
