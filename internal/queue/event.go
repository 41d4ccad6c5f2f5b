// Package queue carries booking notification jobs over RabbitMQ.  The
// publisher side implements the calendar dispatcher; the consumer runs in
// the same process and feeds jobs to the notifier.
package queue

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// DefaultQueue is the durable queue holding notification jobs.
const DefaultQueue = "booking.notifications"

// BookingNotificationEvent is the job payload.  It embeds the full booking
// so the consumer never needs to read the store.
type BookingNotificationEvent struct {
	Booking    model.Booking `json:"booking"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// headerCarrier adapts AMQP headers to the otel propagation interface so the
// trace of the booking request continues in the consumer.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c headerCarrier) Set(key, value string) { c[key] = value }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

var _ propagation.TextMapCarrier = headerCarrier{}

func propagator() propagation.TextMapPropagator { return otel.GetTextMapPropagator() }
