package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// ErrBufferFull is returned by Enqueue when the outbox has no room.
var ErrBufferFull = errors.New("queue: publisher buffer full")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue: publisher closed")

const (
	defaultBuffer      = 64
	defaultDialTimeout = 3 * time.Second
	publishTimeout     = 10 * time.Second
	drainTimeout       = 10 * time.Second
)

type outgoing struct {
	ctx       context.Context
	bookingID string
	msg       amqp.Publishing
}

// Publisher sends notification jobs to a durable queue over a shared
// connection.  Enqueue only hands the message to a buffered outbox; a
// single goroutine owns the connection and publishes.  A broken connection
// is re-dialed on the next message, at most once per dial timeout.
type Publisher struct {
	url         string
	queue       string
	logger      *slog.Logger
	dialTimeout time.Duration
	drain       time.Duration

	stateMu sync.RWMutex
	closed  bool
	out     chan outgoing
	done    chan struct{}

	// mu guards the connection state below
	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewPublisher returns a Publisher for queue at url with room for buffer
// pending messages.  It does not dial until the first message.
func NewPublisher(url, queue string, buffer int, logger *slog.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if buffer < 1 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Publisher{
		url:         url,
		queue:       queue,
		logger:      logger,
		dialTimeout: defaultDialTimeout,
		drain:       drainTimeout,
		out:         make(chan outgoing, buffer),
		done:        make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules b for publishing as a persistent message.  It never
// touches the network.  The message keeps ctx's trace but not its
// cancellation.
func (p *Publisher) Enqueue(ctx context.Context, b model.Booking) error {
	body, err := json.Marshal(BookingNotificationEvent{Booking: b, EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	headers := amqp.Table{}
	propagator().Inject(ctx, headerCarrier(headers))
	m := outgoing{
		ctx:       context.WithoutCancel(ctx),
		bookingID: b.ID,
		msg: amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    b.ID,
			Headers:      headers,
			Body:         body,
		},
	}

	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.out <- m:
		return nil
	default:
		p.logger.WarnContext(ctx, "rabbitmq: outbox full, notification dropped", "booking_id", b.ID)
		return ErrBufferFull
	}
}

// Ping reports whether the broker accepts connections.  An open publishing
// connection counts; otherwise, or while a publish holds the connection, a
// short-lived connection is dialed within ctx.
func (p *Publisher) Ping(ctx context.Context) error {
	open := false
	if p.mu.TryLock() {
		open = p.conn != nil && !p.conn.IsClosed()
		p.mu.Unlock()
	}
	if open {
		return nil
	}
	conn, err := dial(ctx, p.url, p.dialTimeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Close stops accepting messages, waits a bounded time for the outbox to
// drain and releases the connection.
func (p *Publisher) Close() error {
	p.stateMu.Lock()
	if p.closed {
		p.stateMu.Unlock()
		return nil
	}
	p.closed = true
	close(p.out)
	p.stateMu.Unlock()

	select {
	case <-p.done:
	case <-time.After(p.drain):
		p.logger.Warn("rabbitmq: outbox not drained before shutdown", "pending", len(p.out))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	for m := range p.out {
		p.publish(m)
	}
}

func (p *Publisher) publish(m outgoing) {
	ctx, cancel := context.WithTimeout(m.ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channelLocked(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "rabbitmq: notification dropped", "booking_id", m.bookingID, "err", err)
		return
	}
	// routing key = queue name on the default exchange
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, m.msg); err != nil {
		p.logger.WarnContext(ctx, "rabbitmq: publish failed", "booking_id", m.bookingID, "err", err)
		p.resetLocked()
	}
}

var errBrokerDown = errors.New("broker unavailable, retry pending")

func (p *Publisher) channelLocked(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	if time.Now().Before(p.retryAt) {
		return nil, errBrokerDown
	}
	conn, err := dial(ctx, p.url, p.dialTimeout)
	if err != nil {
		p.retryAt = time.Now().Add(p.dialTimeout)
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// dial opens a broker connection whose TCP connect and AMQP handshake both
// end at the earlier of ctx's deadline and timeout.
func dial(ctx context.Context, url string, timeout time.Duration) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			deadline := time.Now().Add(timeout)
			if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
				deadline = d
			}
			d := net.Dialer{Deadline: deadline}
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// cleared by the client once the handshake completes
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close()
				return nil, err
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return conn, nil
}

// declare ensures the durable queue exists; it is idempotent.
func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
