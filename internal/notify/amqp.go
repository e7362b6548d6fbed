// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/accounts/internal/auth"
)

const dialBackoff = 500 * time.Millisecond

// Publisher is the part of *amqp.Channel used to publish.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Envelope is the JSON body of a published message.
type Envelope struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"html_body"`
	TextBody  string    `json:"text_body"`
	CreatedAt time.Time `json:"created_at"`
}

// AMQPNotifier publishes messages to a queue through the default exchange.
type AMQPNotifier struct {
	pub   Publisher
	queue string
	from  string
	now   func() time.Time
}

// NewAMQPNotifier creates an AMQPNotifier publishing to queue.
func NewAMQPNotifier(pub Publisher, queue, from string) (*AMQPNotifier, error) {
	if pub == nil {
		return nil, oops.Code("NOTIFY_INVALID_CONFIG").Errorf("publisher is required")
	}
	if queue == "" {
		return nil, oops.Code("NOTIFY_INVALID_CONFIG").Errorf("queue is required")
	}
	return &AMQPNotifier{pub: pub, queue: queue, from: from, now: time.Now}, nil
}

// Send publishes msg as a persistent JSON envelope.
func (n *AMQPNotifier) Send(ctx context.Context, msg auth.Message) error {
	env := Envelope{
		ID:        ulid.Make().String(),
		From:      n.from,
		To:        msg.To,
		Subject:   msg.Subject,
		HTMLBody:  msg.HTMLBody,
		TextBody:  msg.TextBody,
		CreatedAt: n.now().UTC(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("operation", "marshal envelope").Wrap(err)
	}

	err = n.pub.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.CreatedAt,
		Type:         "auth.message",
		Body:         body,
	})
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").
			With("driver", "amqp").
			With("queue", n.queue).
			With("message_id", env.ID).
			Wrap(err)
	}
	return nil
}

// AMQPSession is an open connection and channel with the queue declared.
type AMQPSession struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

// DialAMQP connects to url, retrying with exponential backoff until
// attempts dials have failed, opens a channel and declares queue as
// durable.
func DialAMQP(ctx context.Context, url, queue string, attempts int, logger *slog.Logger) (*AMQPSession, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}

	var conn *amqp.Connection
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(dialBackoff)) //nolint:gosec // attempts >= 1
	err := retry.Do(ctx, backoff, func(context.Context) error {
		c, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("amqp dial failed", "error", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, oops.Code("NOTIFY_DIAL_FAILED").With("attempts", attempts).Wrap(err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, oops.Code("NOTIFY_DIAL_FAILED").With("operation", "open channel").Wrap(err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, oops.Code("NOTIFY_DIAL_FAILED").
			With("operation", "declare queue").
			With("queue", queue).
			Wrap(err)
	}
	return &AMQPSession{conn: conn, Channel: ch}, nil
}

// Close closes the channel and then the connection.
func (s *AMQPSession) Close() error {
	chErr := s.Channel.Close()
	if err := s.conn.Close(); err != nil {
		return oops.Code("NOTIFY_CLOSE_FAILED").Wrap(err)
	}
	if chErr != nil {
		return oops.Code("NOTIFY_CLOSE_FAILED").With("component", "channel").Wrap(chErr)
	}
	return nil
}

var _ auth.Notifier = (*AMQPNotifier)(nil)
