// Package notify composes and delivers booking notifications.  A Notifier
// renders the owner and customer messages for a booking and hands each one
// to a Sink; a Dispatcher decouples that work from the request path.
package notify

//go:generate mockgen -source=sink.go -destination=sink_mock.go -package=notify

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sink delivers a single message.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}
