package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/qnova-vr-booking/internal/notify"
)

// Consumer reads notification jobs from the durable queue and hands each
// booking to the handler exactly once.  Delivery failures of the handler are
// logged and the message is still acked; undecodable messages are rejected
// without requeue so they cannot loop.
type Consumer struct {
	url      string
	queue    string
	handler  notify.BookingHandler
	logger   *slog.Logger
	prefetch int
}

// NewConsumer returns a Consumer for queue at url.
func NewConsumer(url, queue string, h notify.BookingHandler, logger *slog.Logger) *Consumer {
	if h == nil {
		panic("queue: nil handler")
	}
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consumer{url: url, queue: queue, handler: h, logger: logger, prefetch: 50}
}

// Run connects, consumes and reconnects with exponential backoff (1s up to
// 30s) until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(ctx, c.url, defaultDialTimeout)
		if err != nil {
			c.logger.Warn("notification consumer: dial failed", "err", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("notification consumer: loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.logger.Warn("notification consumer: set QoS failed", "err", err)
	}
	if err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.logger.Info("notification consumer started", "queue", c.queue)

	for d := range msgs {
		if err := c.handle(ctx, d.Headers, d.Body); err != nil {
			if errors.Is(err, errUndecodable) {
				c.logger.Error("notification consumer: rejecting message", "err", err)
				_ = d.Nack(false, false)
				continue
			}
			c.logger.Warn("notification consumer: delivery failed", "err", err)
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

var errUndecodable = errors.New("undecodable message")

// handle decodes one job and runs the handler in the publisher's trace.
func (c *Consumer) handle(ctx context.Context, headers amqp.Table, body []byte) error {
	var ev BookingNotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errUndecodable, err)
	}
	if ev.Booking.ID == "" {
		return fmt.Errorf("%w: missing booking id", errUndecodable)
	}
	if headers != nil {
		ctx = propagator().Extract(ctx, headerCarrier(headers))
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return c.handler.BookingConfirmed(ctx, ev.Booking)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
