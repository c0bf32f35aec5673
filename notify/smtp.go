package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig carries delivery credentials. Injected at construction, never
// read from ambient state.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPNotifier sends plain-text mail over authenticated SMTP.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, template string, data map[string]string) error {
	subject, body, err := render(template, data)
	if err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)
	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("notify: smtp send failed: %w", err)
	}
	return nil
}

func render(template string, data map[string]string) (subject, body string, err error) {
	switch template {
	case TemplateLoginCode:
		return "Your login code",
			fmt.Sprintf("Your one-time login code is %s. It expires shortly.", data["code"]),
			nil
	case TemplateResetLink:
		return "Reset your password",
			fmt.Sprintf("Follow this link to reset your password: %s\r\nThe link expires in one hour.", data["link"]),
			nil
	default:
		return "", "", fmt.Errorf("notify: unknown template %q", template)
	}
}
