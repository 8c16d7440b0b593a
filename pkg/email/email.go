package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/budgetwatch/budgetwatch/internal/config"
	"github.com/jordan-wright/email"
	log "github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("email is not configured")

type Kind string

const (
	KindInfo     Kind = "info"
	KindWarning  Kind = "warning"
	KindCritical Kind = "critical"
)

func (k Kind) color() string {
	switch k {
	case KindCritical:
		return "#dc2626"
	case KindWarning:
		return "#d97706"
	default:
		return "#2563eb"
	}
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg  config.Email
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg config.Email) *Sender {
	return &Sender{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (s *Sender) from() string {
	if s.cfg.FromName == "" {
		return s.cfg.From
	}
	return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
}

func (s *Sender) deliver(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SmtpHost, s.cfg.SmtpPort)
	var auth smtp.Auth
	if s.cfg.SmtpUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SmtpUser, s.cfg.SmtpPass, s.cfg.SmtpHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		log.Errorf("Failed to send email to %s: %v", strings.Join(e.To, ","), err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Infof("Email sent to %s: %s", strings.Join(e.To, ","), e.Subject)
	return nil
}

// SendVerificationEmail sends the account activation link to a new user.
func (s *Sender) SendVerificationEmail(ctx context.Context, to string, verificationUrl string, userName string) error {
	if !s.cfg.IsConfigured() {
		log.Warnf("Email not configured, verification link for %s: %s", to, verificationUrl)
		return ErrNotConfigured
	}

	greeting := "Hello!"
	if userName != "" {
		greeting = fmt.Sprintf("Hello %s!", userName)
	}

	e := email.NewEmail()
	e.From = s.from()
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Verify your email - %s", s.cfg.FromName)
	e.Text = []byte(fmt.Sprintf("%s Open the link to verify your email: %s\n\nThe link expires in 24 hours.", greeting, verificationUrl))
	escapedUrl := html.EscapeString(verificationUrl)
	e.HTML = []byte(fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
<h2 style="color: #171717;">Verify your email</h2>
<p>%s</p>
<p style="margin: 24px 0;"><a href="%s" style="background: #171717; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px;">Verify email</a></p>
<p style="color: #737373; font-size: 12px; word-break: break-all;">%s</p>
<p style="color: #737373; font-size: 12px;">This link expires in 24 hours.</p>
</div>`, html.EscapeString(greeting), escapedUrl, escapedUrl))

	return s.deliver(e)
}

// SendNotificationEmail sends an automatic notification such as a limit alert.
func (s *Sender) SendNotificationEmail(ctx context.Context, to string, subject string, message string, kind Kind) error {
	if !s.cfg.IsConfigured() {
		log.Warnf("Email not configured, notification for %s not sent: %s", to, subject)
		return ErrNotConfigured
	}

	e := email.NewEmail()
	e.From = s.from()
	e.To = []string{to}
	e.Subject = fmt.Sprintf("[%s] %s", s.cfg.FromName, subject)
	e.Text = []byte(message)
	e.HTML = []byte(fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
<h2 style="color: #171717;">%s</h2>
<div style="border-left: 4px solid %s; padding: 16px; background: #fafafa;">
<p style="margin: 0; color: #404040;">%s</p>
</div>
</div>`, html.EscapeString(subject), kind.color(), strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")))

	return s.deliver(e)
}
