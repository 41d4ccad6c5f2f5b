package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/service"
)

type ContactHandler struct {
	svc *service.ContactService
	log *slog.Logger
}

func NewContactHandler(svc *service.ContactService, log *slog.Logger) *ContactHandler {
	if svc == nil {
		panic("nil contact service passed to NewContactHandler")
	}
	return &ContactHandler{svc: svc, log: orDiscard(log)}
}

// Create handles POST /api/contact.
func (h *ContactHandler) Create(c echo.Context) error {
	var req service.ContactRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	m, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// List handles GET /api/contact.
func (h *ContactHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, list)
}
