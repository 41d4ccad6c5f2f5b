package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/config"
	"github.com/iliyamo/qnova-vr-booking/internal/service"
	"github.com/iliyamo/qnova-vr-booking/internal/utils"
)

// RoleAdmin is the token role required on every admin route.
const RoleAdmin = "ADMIN"

// AdminHandler serves the admin login, today's bookings and the test mode.
type AdminHandler struct {
	cfg      config.Config
	bookings *service.BookingService
	testMode *service.TestModeService
	log      *slog.Logger
}

func NewAdminHandler(cfg config.Config, bookings *service.BookingService, testMode *service.TestModeService, log *slog.Logger) *AdminHandler {
	if bookings == nil || testMode == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{cfg: cfg, bookings: bookings, testMode: testMode, log: orDiscard(log)}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login.  It checks the single configured
// admin account and returns an access token with the ADMIN role.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUsername)) == 1
	passOK := utils.VerifyPassword(h.cfg.AdminPasswordHash, req.Password)
	if !userOK || !passOK {
		h.log.WarnContext(c.Request().Context(), "admin login rejected", "username", req.Username, "ip", c.RealIP())
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.cfg.JWTSecret, h.cfg.AdminUsername, RoleAdmin, h.cfg.AccessTTLMin)
	if err != nil {
		h.log.ErrorContext(c.Request().Context(), "issue admin token", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"token_type":   "Bearer",
		"expires_at":   tok.Exp,
	})
}

// TodayBookings handles GET /api/admin/bookings/today.
func (h *AdminHandler) TodayBookings(c echo.Context) error {
	date, list, err := h.bookings.Today(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "bookings": list, "count": len(list)})
}

// CreateTestBookings handles POST /api/admin/test-mode/create-bookings.
func (h *AdminHandler) CreateTestBookings(c echo.Context) error {
	res, err := h.testMode.CreateTestBookings(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "test bookings created",
		"date":     res.Date,
		"bookings": len(res.Bookings),
		"created":  res.Bookings,
	})
}

// ClearTestData handles DELETE /api/admin/test-mode/clear-test-data.
func (h *AdminHandler) ClearTestData(c echo.Context) error {
	res, err := h.testMode.ClearTestData(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":          "test data cleared",
		"released_slots":   res.ReleasedSlots,
		"deleted_bookings": res.DeletedBookings,
	})
}
