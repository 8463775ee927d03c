package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

// Config captures SMTP delivery settings. When Host or From is empty the
// mailer is disabled and New returns a no-op implementation.
type Config struct {
	Host     string
	Port     string
	User     string
	Pass     string
	From     string
	Security string // "starttls" (default), "ssl", or "none"
	ResetURL string // base URL the reset token is appended to
}

// New returns an SMTP-backed Mailer, or a no-op one when the configuration
// is incomplete. Running without a mail relay is a supported setup for local
// development; the reset flow still issues tokens, they just go nowhere.
func New(cfg Config, log zerolog.Logger) ports.Mailer {
	if cfg.Host == "" || cfg.From == "" {
		log.Warn().Msg("mailer disabled: SMTP host or from address missing")
		return &noopMailer{log: log}
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.Security == "" {
		cfg.Security = "starttls"
	}
	log.Info().Str("host", cfg.Host).Str("port", cfg.Port).Str("security", cfg.Security).Msg("mailer enabled")
	return &smtpMailer{cfg: cfg, log: log}
}

type noopMailer struct {
	log zerolog.Logger
}

func (n *noopMailer) SendPasswordReset(_ context.Context, user *domain.User, _ string, _ time.Time) error {
	n.log.Info().Str("to", user.Email).Msg("mailer disabled, dropping password reset email")
	return nil
}

type smtpMailer struct {
	cfg Config
	log zerolog.Logger
}

func (m *smtpMailer) SendPasswordReset(_ context.Context, user *domain.User, token string, expires time.Time) error {
	link := fmt.Sprintf("%s/%s", m.cfg.ResetURL, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYou requested a password reset. The link below is valid until %s UTC.\r\n\r\n%s\r\n\r\nIf you did not request this, ignore this message.\r\n",
		user.Name, expires.UTC().Format(time.RFC3339), link,
	)
	msg := m.message(user.Email, "Reset your password", body)

	switch m.cfg.Security {
	case "ssl", "smtps":
		return m.sendSSL(user.Email, msg)
	case "none":
		return smtp.SendMail(m.addr(), m.auth(), m.cfg.From, []string{user.Email}, msg)
	default:
		return m.sendStartTLS(user.Email, msg)
	}
}

func (m *smtpMailer) sendStartTLS(to string, msg []byte) error {
	addr := m.addr()
	host, _, _ := net.SplitHostPort(addr)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return m.deliver(client, to, msg)
}

func (m *smtpMailer) sendSSL(to string, msg []byte) error {
	addr := m.addr()
	host, _, _ := net.SplitHostPort(addr)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("smtp tls dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	return m.deliver(client, to, msg)
}

func (m *smtpMailer) deliver(client *smtp.Client, to string, msg []byte) error {
	if auth := m.auth(); auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

func (m *smtpMailer) auth() smtp.Auth {
	if m.cfg.User == "" {
		return nil
	}
	return smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
}

func (m *smtpMailer) addr() string {
	return net.JoinHostPort(m.cfg.Host, m.cfg.Port)
}

func (m *smtpMailer) message(to, subject, body string) []byte {
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		m.cfg.From, to, subject, time.Now().UTC().Format(time.RFC1123Z),
	)
	return append([]byte(headers), []byte(body)...)
}
