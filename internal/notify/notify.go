// Package notify sends transactional email.
package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/Ponloe/cinemesh-catalog/internal/config"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier delivers messages through an SMTP relay.
type SMTPNotifier struct {
	from   string
	dialer dialer
}

func NewSMTPNotifier(cfg config.Mail) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogNotifier only records messages; used when no SMTP relay is configured.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n LogNotifier) Send(_ context.Context, msg Message) error {
	n.Log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("mail not sent: smtp disabled")
	return nil
}

// New picks the SMTP notifier when the relay is configured.
func New(cfg config.Mail, log *logrus.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg)
	}
	return LogNotifier{Log: log}
}
