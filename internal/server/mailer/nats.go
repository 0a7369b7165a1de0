package mailer

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// natsPublisher is the part of *nats.Conn the sender needs.
type natsPublisher interface {
	Publish(subject string, data []byte) error
}

type natsConn interface {
	natsPublisher
	Close()
}

// natsConnect is a seam for tests.
var natsConnect = func(url string) (natsConn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	return nats.Connect(url, nats.Name("todolist-mailer"))
}

// NATSSender publishes mails on a NATS subject.
type NATSSender struct {
	nc      natsPublisher
	subject string
}

func NewNATSSender(nc natsPublisher, subject string) *NATSSender {
	return &NATSSender{nc: nc, subject: subject}
}

func (s *NATSSender) SendMail(ctx context.Context, recipient string, template string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	payload, err := encode(recipient, template)
	if err != nil {
		return false, err
	}
	if err := s.nc.Publish(s.subject, payload); err != nil {
		return false, fmt.Errorf("nats publish %s: %w", s.subject, err)
	}
	return true, nil
}
