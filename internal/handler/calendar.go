package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
)

// CalendarHandler serves the slot calendar: day and range views, slot
// booking, generation, availability and the admin slot mutations.
type CalendarHandler struct {
	svc *calendar.Service
	log *slog.Logger
}

func NewCalendarHandler(svc *calendar.Service, log *slog.Logger) *CalendarHandler {
	if svc == nil {
		panic("nil calendar service passed to NewCalendarHandler")
	}
	return &CalendarHandler{svc: svc, log: orDiscard(log)}
}

// Day handles GET /api/calendar/:date.
func (h *CalendarHandler) Day(c echo.Context) error {
	day, err := h.svc.Day(c.Request().Context(), c.Param("date"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, day)
}

// Range handles GET /api/calendar/range/:start/:end and answers with the
// days in ascending order.
func (h *CalendarHandler) Range(c echo.Context) error {
	days, err := h.svc.Range(c.Request().Context(), c.Param("start"), c.Param("end"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, days)
}

// Generate handles POST /api/calendar/generate-slots/:date.
func (h *CalendarHandler) Generate(c echo.Context) error {
	res, err := h.svc.Generate(c.Request().Context(), c.Param("date"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	msg := "slots generated"
	if res.Existing {
		msg = "slots already exist for this date"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     msg,
		"date":        res.Date,
		"created":     res.Created,
		"total_slots": res.Total,
	})
}

// BookSlot handles POST /api/calendar/book-slot/:id.
func (h *CalendarHandler) BookSlot(c echo.Context) error {
	var req calendar.BookingRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	b, err := h.svc.BookSlot(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "slot booked",
		"booking": b,
		"slot_id": c.Param("id"),
	})
}

// Availability handles GET /api/availability/:date?service=.
func (h *CalendarHandler) Availability(c echo.Context) error {
	av, err := h.svc.Availability(c.Request().Context(), c.Param("date"), c.QueryParam("service"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, av)
}

// CreateSlot handles POST /api/calendar/slots.
func (h *CalendarHandler) CreateSlot(c echo.Context) error {
	var in calendar.SlotInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	slot, err := h.svc.CreateSlot(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, slot)
}

// UpdateSlot handles PUT /api/calendar/slots/:id.
func (h *CalendarHandler) UpdateSlot(c echo.Context) error {
	var patch calendar.SlotPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	slot, err := h.svc.UpdateSlot(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, slot)
}

// DeleteSlot handles DELETE /api/calendar/slots/:id.
func (h *CalendarHandler) DeleteSlot(c echo.Context) error {
	if err := h.svc.DeleteSlot(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "slot deleted", "id": c.Param("id")})
}
