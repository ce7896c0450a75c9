package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"ems/internal/domain/notifications"
	"ems/internal/platform/config"
)

type disabledMailer struct{}

func (disabledMailer) Send(ctx context.Context, msg notifications.Message) error {
	return notifications.ErrMailerDisabled
}

type smtpMailer struct {
	cfg config.Config
}

// New returns an SMTP mailer, or a mailer that always reports
// ErrMailerDisabled when credentials are missing so callers keep the
// notification queued.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.SMTPConfigured() {
		return disabledMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

func (s *smtpMailer) Send(ctx context.Context, msg notifications.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient address is empty")
	}
	from := msg.From
	if from == "" {
		from = s.cfg.EmailFrom
	}
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", from, err)
	}
	toAddr, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if msg.ToName != "" {
		toAddr.Name = msg.ToName
	}

	body, err := buildMessage(fromAddr, toAddr, msg.Subject, msg.Text, msg.HTML)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprint(s.cfg.SMTPPort))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(fromAddr.Address); err != nil {
		return err
	}
	if err := client.Rcpt(toAddr.Address); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage renders a multipart/alternative message. The plain text part
// is always present; the HTML part only when html is non-empty.
func buildMessage(from, to *mail.Address, subject, text, html string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + from.String(),
		"To: " + to.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
	}
	if html == "" {
		headers = append(headers, `Content-Type: text/plain; charset="UTF-8"`, "", text)
		return []byte(strings.Join(headers, "\r\n")), nil
	}
	headers = append(headers, fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q", writer.Boundary()), "", "")
	buf.WriteString(strings.Join(headers, "\r\n"))

	parts := []struct {
		contentType string
		content     string
	}{
		{contentType: `text/plain; charset="UTF-8"`, content: text},
		{contentType: `text/html; charset="UTF-8"`, content: html},
	}
	for _, part := range parts {
		pw, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
