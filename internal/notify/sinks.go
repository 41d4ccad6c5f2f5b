package notify

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
)

// LogSink writes messages to the logger instead of sending them.  It is the
// default when no SMTP server is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink { return &LogSink{logger: logger} }

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email (log only)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// SMTPSink delivers messages through an SMTP relay, with PLAIN auth when a
// username is configured.
type SMTPSink struct {
	addr     string
	host     string
	from     string
	fromAddr string
	auth     smtp.Auth
}

// NewSMTPSink validates from and prepares a sink for host:port.
func NewSMTPSink(host string, port int, username, password, from string) (*SMTPSink, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("smtp: empty host")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("smtp: invalid from address %q: %w", from, err)
	}
	s := &SMTPSink{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		host:     host,
		from:     addr.String(),
		fromAddr: addr.Address,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s, nil
}

// Send performs a single delivery attempt.  net/smtp has no context
// support, so ctx is only checked before dialing.
func (s *SMTPSink) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return smtp.SendMail(s.addr, s.auth, s.fromAddr, []string{msg.To}, buildMessage(s.from, msg))
}

// buildMessage renders a minimal RFC 5322 message.  The subject is
// Q-encoded because it carries non-ASCII characters.
func buildMessage(from string, msg Message) []byte {
	body := strings.ReplaceAll(msg.Body, "\n", "\r\n")
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Transfer-Encoding: 8bit\r\n\r\n%s\r\n",
		from, msg.To, mime.QEncoding.Encode("utf-8", msg.Subject), body,
	))
}
