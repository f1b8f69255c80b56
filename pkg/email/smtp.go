package email

import (
	"context"
	"fmt"
	"net/smtp"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPSender delivers transactional mail over plain SMTP.
type SMTPSender struct {
	config *SMTPConfig
}

func NewSMTPSender(config *SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config}
}

func (s *SMTPSender) SendVerification(ctx context.Context, to, name, url string) error {
	subject := "Email Verification for ReferX"
	body := fmt.Sprintf(`Hi %s,

Please click the link below to verify your email address:
%s

The link is valid for 1 hour.

If you did not create an account, you can ignore this email.`, name, url)

	return s.send(to, subject, body)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, name, url string) error {
	subject := "Password Reset Request"
	body := fmt.Sprintf(`Hi %s,

You requested a password reset. Use the link below to choose a new password:
%s

The link is valid for 10 minutes.

If you did not request a reset, you can ignore this email.`, name, url)

	return s.send(to, subject, body)
}

func (s *SMTPSender) SendReferralSuccess(ctx context.Context, to, name, refereeName string) error {
	subject := "Referral Success!"
	body := fmt.Sprintf(`Hi %s,

Good news: %s just verified their account through your referral.
Your reward points have been credited.`, name, refereeName)

	return s.send(to, subject, body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	from := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, to, subject, body))

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
