// Package handler contains the echo handlers of the booking API.  Handlers
// bind and shape requests; the rules live in the calendar and service
// packages.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
)

// writeError maps the calendar error taxonomy onto HTTP statuses.  Upstream
// and unknown errors are logged and answered with a generic message.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, calendar.ErrValidation):
		status, msg = http.StatusBadRequest, clientMessage(err, calendar.ErrValidation)
	case errors.Is(err, calendar.ErrNotFound):
		status, msg = http.StatusNotFound, clientMessage(err, calendar.ErrNotFound)
	case errors.Is(err, calendar.ErrInvalidState):
		status, msg = http.StatusConflict, clientMessage(err, calendar.ErrInvalidState)
	case errors.Is(err, calendar.ErrConflict):
		status, msg = http.StatusConflict, clientMessage(err, calendar.ErrConflict)
	case errors.Is(err, calendar.ErrUpstream):
		status, msg = http.StatusBadGateway, "upstream service unavailable"
	}
	if status >= 500 {
		log.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "route", c.Path(), "err", err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// clientMessage strips the sentinel prefix so "validation error: invalid
// date" is shown as "invalid date".
func clientMessage(err, kind error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
		return rest
	}
	return msg
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}
