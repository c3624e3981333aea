package email

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
)

// Sender delivers account emails over SMTP. A disabled sender logs and
// drops, which is how development environments run.
type Sender struct {
	enabled  bool
	host     string
	port     int
	from     string
	password string
	baseURL  string
	logger   *slog.Logger
}

func NewSender(enabled bool, host string, port int, from, password, baseURL string, logger *slog.Logger) *Sender {
	return &Sender{
		enabled:  enabled,
		host:     host,
		port:     port,
		from:     from,
		password: password,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// SendWelcome mails the initial credentials with the card QR attached.
func (s *Sender) SendWelcome(to, name, surname, username, password, qrPath string) error {
	body := fmt.Sprintf(
		"Hello %s %s,\n\n"+
			"Welcome to Impact! Your account is ready.\n\n"+
			"Login: %s\nPassword: %s\n\n"+
			"Your membership card is attached. Please change your password after the first login.\n",
		name, surname, username, password)

	msg, err := buildMessage(s.from, to, "Welcome to Impact", body, qrPath)
	if err != nil {
		return fmt.Errorf("build welcome email: %w", err)
	}
	return s.send(to, msg)
}

// SendCard mails the membership card QR after a confirmed signup. The
// member chose their own password, so no credentials travel in this one.
func (s *Sender) SendCard(to, name, qrPath string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your Impact account is confirmed. Your membership card is attached; show it at the door to check in.\n",
		name)

	msg, err := buildMessage(s.from, to, "Your Impact membership card", body, qrPath)
	if err != nil {
		return fmt.Errorf("build card email: %w", err)
	}
	return s.send(to, msg)
}

// SendConfirmation mails the signup confirmation link.
func (s *Sender) SendConfirmation(to, name, token string) error {
	link := strings.TrimRight(s.baseURL, "/") + "/members/confirm/" + token
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Confirm your Impact signup by opening the link below:\n\n%s\n\n"+
			"The link expires in a few hours. If you did not sign up, ignore this email.\n",
		name, link)

	msg, err := buildMessage(s.from, to, "Confirm your Impact signup", body, "")
	if err != nil {
		return fmt.Errorf("build confirmation email: %w", err)
	}
	return s.send(to, msg)
}

func (s *Sender) send(to string, msg []byte) error {
	if !s.enabled {
		s.logger.Info("email delivery disabled, dropping message", "to", to)
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

const attachmentBoundary = "impact-mail-boundary"

// buildMessage assembles a MIME message with an optional PNG attachment.
func buildMessage(from, to, subject, body, attachmentPath string) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if attachmentPath == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(body)
		return []byte(b.String()), nil
	}

	attachment, err := os.ReadFile(attachmentPath)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", attachmentBoundary)

	fmt.Fprintf(&b, "--%s\r\n", attachmentBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", attachmentBoundary)
	b.WriteString("Content-Type: image/png\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", filepath.Base(attachmentPath))

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", attachmentBoundary)
	return []byte(b.String()), nil
}
