// Package payment abstracts the hosted checkout provider used by the
// direct booking flow.
package payment

//go:generate mockgen -source=provider.go -destination=provider_mock.go -package=payment

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned by VerifyWebhook for payloads that fail
// signature or timestamp checks.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// CheckoutRequest describes a one-off payment.
type CheckoutRequest struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is a created hosted checkout.
type Session struct {
	ID  string
	URL string
}

// Status is the provider's view of a checkout session.
type Status struct {
	Status        string // open, complete, expired
	PaymentStatus string // paid, unpaid, no_payment_required
	AmountCents   int64
	Currency      string
	Metadata      map[string]string
}

// WebhookEvent is a verified provider notification about a session.
type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
	Metadata      map[string]string
}

// Provider is the external payment service.
type Provider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (Session, error)
	SessionStatus(ctx context.Context, sessionID string) (Status, error)
	VerifyWebhook(payload []byte, signature string) (WebhookEvent, error)
}
