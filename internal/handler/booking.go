package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/catalog"
	"github.com/iliyamo/qnova-vr-booking/internal/service"
)

// BookingHandler serves the direct booking form and the admin booking list.
type BookingHandler struct {
	svc *service.BookingService
	log *slog.Logger
}

func NewBookingHandler(svc *service.BookingService, log *slog.Logger) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc, log: orDiscard(log)}
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var req service.DirectBookingRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	b, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List handles GET /api/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Games handles GET /api/games?platform=.
func Games(c echo.Context) error {
	return c.JSON(http.StatusOK, catalog.Games(c.QueryParam("platform")))
}
