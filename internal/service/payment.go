package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/payment"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

// ErrPaymentsDisabled is returned when no payment provider is configured.
var ErrPaymentsDisabled = fmt.Errorf("%w: payments are not configured", calendar.ErrUpstream)

// Webhook event types that change a transaction.
const (
	eventSessionCompleted = "checkout.session.completed"
	eventSessionExpired   = "checkout.session.expired"
)

// CheckoutInput starts a payment for an existing booking.  OriginURL is the
// frontend base the provider redirects back to.
type CheckoutInput struct {
	BookingID string `json:"booking_id"`
	OriginURL string `json:"origin_url"`
}

// CheckoutResult is the hosted page the customer is sent to.
type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// PaymentStatus reports a transaction after reconciling it with the
// provider.
type PaymentStatus struct {
	SessionID     string `json:"session_id"`
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

// PaymentService creates checkout sessions priced from the policy table and
// confirms bookings once the provider reports them paid.
type PaymentService struct {
	bookings repository.BookingStore
	payments repository.PaymentStore
	provider payment.Provider
	policy   calendar.Policy
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

// NewPaymentService returns a PaymentService.  A nil provider makes every
// operation fail with ErrPaymentsDisabled.
func NewPaymentService(bookings repository.BookingStore, payments repository.PaymentStore, provider payment.Provider, policy calendar.Policy, currency string, logger *slog.Logger) *PaymentService {
	if bookings == nil || payments == nil {
		panic("service: nil store passed to NewPaymentService")
	}
	if len(policy.Offerings) == 0 {
		policy = calendar.DefaultPolicy()
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "eur"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PaymentService{
		bookings: bookings,
		payments: payments,
		provider: provider,
		policy:   policy,
		currency: currency,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checkout opens a hosted checkout for the booking.  The amount is the
// offering's price per participant times the participant count.
func (s *PaymentService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if s.provider == nil {
		return CheckoutResult{}, ErrPaymentsDisabled
	}
	in.BookingID = strings.TrimSpace(in.BookingID)
	if in.BookingID == "" {
		return CheckoutResult{}, calendar.Validation("booking_id is required")
	}
	origin, err := parseOrigin(in.OriginURL)
	if err != nil {
		return CheckoutResult{}, err
	}

	b, err := s.bookings.GetByID(ctx, in.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return CheckoutResult{}, calendar.NotFound("booking %s not found", in.BookingID)
	}
	if err != nil {
		return CheckoutResult{}, calendar.Upstream("load booking", err)
	}
	if b.Status == model.BookingCancelled {
		return CheckoutResult{}, fmt.Errorf("%w: booking %s is cancelled", calendar.ErrInvalidState, b.ID)
	}
	offering, ok := s.policy.Offering(b.Service)
	if !ok {
		return CheckoutResult{}, calendar.Validation("no price configured for service %q", b.Service)
	}
	participants := max(b.Participants, 1)
	amount := offering.PriceCents * int64(participants)

	sess, err := s.provider.CreateSession(ctx, payment.CheckoutRequest{
		AmountCents: amount,
		Currency:    s.currency,
		ProductName: fmt.Sprintf("%s, %s %s (%d)", b.Service, b.Date, b.Time, participants),
		SuccessURL:  origin + "/booking/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   origin + "/booking/cancel",
		Metadata:    map[string]string{"booking_id": b.ID, "service": b.Service},
	})
	if err != nil {
		return CheckoutResult{}, calendar.Upstream("create checkout session", err)
	}

	now := s.now()
	tx := model.PaymentTransaction{
		SessionID:     sess.ID,
		BookingID:     b.ID,
		AmountCents:   amount,
		Currency:      s.currency,
		Status:        model.PaymentInitiated,
		PaymentStatus: "unpaid",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.Create(ctx, &tx); err != nil {
		return CheckoutResult{}, calendar.Upstream("store payment transaction", err)
	}
	s.logger.InfoContext(ctx, "checkout session created",
		"booking_id", b.ID, "session_id", sess.ID, "amount_cents", amount, "currency", s.currency)
	return CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// Status asks the provider for the session and applies the result to the
// local transaction and booking.
func (s *PaymentService) Status(ctx context.Context, sessionID string) (PaymentStatus, error) {
	if s.provider == nil {
		return PaymentStatus{}, ErrPaymentsDisabled
	}
	tx, err := s.transaction(ctx, sessionID)
	if err != nil {
		return PaymentStatus{}, err
	}
	st, err := s.provider.SessionStatus(ctx, sessionID)
	if err != nil {
		return PaymentStatus{}, calendar.Upstream("get checkout session", err)
	}
	next := localStatus(tx.Status, st.Status, st.PaymentStatus)
	if err := s.apply(ctx, tx, next, st.PaymentStatus); err != nil {
		return PaymentStatus{}, err
	}
	return PaymentStatus{
		SessionID:     tx.SessionID,
		BookingID:     tx.BookingID,
		Status:        st.Status,
		PaymentStatus: st.PaymentStatus,
		AmountCents:   st.AmountCents,
		Currency:      st.Currency,
	}, nil
}

// Webhook verifies a provider notification and applies completed and
// expired checkout events.  Other events and unknown sessions are
// acknowledged without effect.
func (s *PaymentService) Webhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return ErrPaymentsDisabled
	}
	evt, err := s.provider.VerifyWebhook(payload, signature)
	if errors.Is(err, payment.ErrInvalidSignature) {
		return calendar.Validation("invalid webhook signature")
	}
	if err != nil {
		return calendar.Upstream("decode webhook", err)
	}

	var next string
	switch evt.Type {
	case eventSessionCompleted:
		next = model.PaymentInitiated
		if evt.PaymentStatus == "paid" || evt.PaymentStatus == "no_payment_required" {
			next = model.PaymentCompleted
		}
	case eventSessionExpired:
		next = model.PaymentExpired
	default:
		s.logger.DebugContext(ctx, "webhook event ignored", "event_id", evt.ID, "type", evt.Type)
		return nil
	}

	tx, err := s.transaction(ctx, evt.SessionID)
	if errors.Is(err, calendar.ErrNotFound) {
		s.logger.WarnContext(ctx, "webhook for unknown session", "event_id", evt.ID, "session_id", evt.SessionID)
		return nil
	}
	if err != nil {
		return err
	}
	return s.apply(ctx, tx, next, evt.PaymentStatus)
}

func (s *PaymentService) transaction(ctx context.Context, sessionID string) (*model.PaymentTransaction, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, calendar.Validation("session_id is required")
	}
	tx, err := s.payments.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, calendar.NotFound("payment session %s not found", sessionID)
	}
	if err != nil {
		return nil, calendar.Upstream("load payment transaction", err)
	}
	return tx, nil
}

// apply records a status change.  The booking is confirmed only on the
// first transition to completed, so replays and repeated polls are no-ops.
func (s *PaymentService) apply(ctx context.Context, tx *model.PaymentTransaction, next, paymentStatus string) error {
	if next == tx.Status && paymentStatus == tx.PaymentStatus {
		return nil
	}
	if tx.Status == model.PaymentCompleted {
		return nil
	}
	if _, err := s.payments.UpdateStatus(ctx, tx.SessionID, next, paymentStatus, s.now()); err != nil {
		return calendar.Upstream("update payment transaction", err)
	}
	s.logger.InfoContext(ctx, "payment status changed",
		"session_id", tx.SessionID, "booking_id", tx.BookingID, "from", tx.Status, "to", next)

	if next != model.PaymentCompleted {
		return nil
	}
	n, err := s.bookings.UpdateStatus(ctx, tx.BookingID, model.BookingConfirmed)
	if err != nil {
		return calendar.Upstream("confirm booking", err)
	}
	if n == 0 {
		s.logger.WarnContext(ctx, "paid session for missing booking", "session_id", tx.SessionID, "booking_id", tx.BookingID)
	}
	return nil
}

// localStatus maps the provider's session state onto the transaction
// states.  Completed is terminal.
func localStatus(current, sessionStatus, paymentStatus string) string {
	switch {
	case current == model.PaymentCompleted:
		return current
	case paymentStatus == "paid" || paymentStatus == "no_payment_required":
		return model.PaymentCompleted
	case sessionStatus == "expired":
		return model.PaymentExpired
	default:
		return current
	}
}

func parseOrigin(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", calendar.Validation("origin_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", calendar.Validation("invalid origin_url %q", raw)
	}
	return raw, nil
}
