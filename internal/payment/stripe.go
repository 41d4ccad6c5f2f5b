package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeProvider implements Provider with Stripe Checkout in payment mode.
// It uses a per-instance client instead of the package level stripe.Key.
type StripeProvider struct {
	sessions      checkoutsession.Client
	webhookSecret string
	tolerance     time.Duration
}

// NewStripeProvider returns a provider for the given secret key.  An empty
// webhookSecret makes VerifyWebhook reject every payload.
func NewStripeProvider(secretKey, webhookSecret string, tolerance time.Duration) *StripeProvider {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &StripeProvider{
		sessions:      checkoutsession.Client{B: stripe.GetBackend(stripe.APIBackend), Key: strings.TrimSpace(secretKey)},
		webhookSecret: strings.TrimSpace(webhookSecret),
		tolerance:     tolerance,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req CheckoutRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}
	if id := req.Metadata["booking_id"]; id != "" {
		params.ClientReferenceID = stripe.String(id)
		params.IdempotencyKey = stripe.String("checkout-" + id)
	}
	params.Context = ctx

	sess, err := p.sessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) SessionStatus(ctx context.Context, sessionID string) (Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := p.sessions.Get(sessionID, params)
	if err != nil {
		return Status{}, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return Status{
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		AmountCents:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes checkout
// session events.  Other event types are returned without a session id.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if p.webhookSecret == "" || strings.TrimSpace(signature) == "" {
		return WebhookEvent{}, ErrInvalidSignature
	}
	evt, err := webhook.ConstructEventWithTolerance(payload, signature, p.webhookSecret, p.tolerance)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := WebhookEvent{ID: evt.ID, Type: string(evt.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || evt.Data == nil {
		return out, nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return WebhookEvent{}, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	out.SessionID = sess.ID
	out.PaymentStatus = string(sess.PaymentStatus)
	out.Metadata = sess.Metadata
	return out, nil
}
