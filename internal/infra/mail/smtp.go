package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"shop/internal/config"
	"shop/internal/usecase"
)

var ErrNotConfigured = errors.New("smtp not configured")

// SMTPで1通ずつ送る
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	// テストで差し替える
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	m := &SMTPMailer{
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Host != "" {
		m.addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}
	if cfg.User != "" {
		m.auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.addr == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header value")
	}

	msg := buildMessage(m.from, to, subject, body, time.Now())
	return m.send(m.addr, m.auth, m.from, []string{to}, msg)
}

func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

var _ usecase.Mailer = (*SMTPMailer)(nil)
