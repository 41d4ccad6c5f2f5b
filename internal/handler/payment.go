package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/service"
)

// maxWebhookBytes bounds the webhook payload read into memory.
const maxWebhookBytes = 64 << 10

// PaymentHandler serves hosted checkout creation, status polling and the
// provider webhook.
type PaymentHandler struct {
	svc *service.PaymentService
	log *slog.Logger
}

func NewPaymentHandler(svc *service.PaymentService, log *slog.Logger) *PaymentHandler {
	if svc == nil {
		panic("nil payment service passed to NewPaymentHandler")
	}
	return &PaymentHandler{svc: svc, log: orDiscard(log)}
}

// Checkout handles POST /api/payments/checkout.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	var in service.CheckoutInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	res, err := h.svc.Checkout(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Status handles GET /api/payments/status/:session_id.
func (h *PaymentHandler) Status(c echo.Context) error {
	st, err := h.svc.Status(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Webhook handles POST /api/webhook/stripe.  The raw body is needed for
// signature verification, so it is read directly instead of bound.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return badBody(c)
	}
	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.svc.Webhook(c.Request().Context(), payload, sig); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
