package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers rendered emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.Sender == "" {
		cfg.Sender = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", cfg.Sender)
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.Sender, []string{msg.To}, buildMessage(m.cfg.Sender, msg)); err != nil {
		log.Errorf("[Mail] SMTP send error to %s: %v", msg.To, err)
		return err
	}
	log.Infof("[Mail] Email %q sent to %s via %s", msg.Subject, msg.To, addr)
	return nil
}

func buildMessage(sender string, msg Message) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			msg.HTML,
	)
}

// NopMailer only logs. Used when no SMTP host is configured; the rendered
// HTML is still returned to the caller.
type NopMailer struct{}

func (NopMailer) Send(_ context.Context, msg Message) error {
	log.Infof("[Mail] SMTP not configured, skipping %q to %s", msg.Subject, msg.To)
	return nil
}

// NewMailer returns an SMTP mailer when a host is configured.
func NewMailer(cfg SMTPConfig) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return NopMailer{}
	}
	return NewSMTPMailer(cfg)
}
