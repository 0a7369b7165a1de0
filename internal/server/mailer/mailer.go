// Package mailer delivers notification mails requested by the services.
//
// Delivery itself is handed off: the log sender only records the mail,
// the Redis sender pushes it onto a list consumed by a mail worker and the
// NATS sender publishes it on a subject.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/config"
)

// Sender dispatches a mail. It reports whether the mail was accepted.
type Sender interface {
	SendMail(ctx context.Context, recipient string, template string) (bool, error)
}

// Message is the payload handed to queue based transports.
type Message struct {
	To       string    `json:"to"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queuedAt"`
}

var ErrNoRecipient = errors.New("mail recipient is empty")

// now is a seam for tests.
var now = time.Now

func encode(recipient, template string) ([]byte, error) {
	if recipient == "" {
		return nil, ErrNoRecipient
	}
	return json.Marshal(Message{To: recipient, Body: template, QueuedAt: now().UTC()})
}

// New builds the Sender selected by cfg.MailTransport. The returned close
// function releases the transport connection and is never nil.
func New(cfg *config.Config, logger logging.Logger) (Sender, func() error, error) {
	switch cfg.MailTransport {
	case "", config.MailTransportLog:
		return NewLogSender(logger), func() error { return nil }, nil
	case config.MailTransportRedis:
		client := newRedisClient(cfg.RedisAddr)
		return NewRedisSender(client, cfg.RedisMailKey), client.Close, nil
	case config.MailTransportNATS:
		conn, err := natsConnect(cfg.NATSURL)
		if err != nil {
			return nil, nil, fmt.Errorf("nats connect: %w", err)
		}
		return NewNATSSender(conn, cfg.NATSSubject), func() error { conn.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

// LogSender writes mails to the log instead of delivering them.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "mailer")}
}

func (s *LogSender) SendMail(ctx context.Context, recipient string, template string) (bool, error) {
	if recipient == "" {
		return false, ErrNoRecipient
	}
	s.logger.Info(ctx, "mail dispatched", "to", recipient, "body", template)
	return true, nil
}
