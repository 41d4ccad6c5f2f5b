// Package router registers the HTTP routes of the booking API on an echo
// instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/qnova-vr-booking/internal/config"
	"github.com/iliyamo/qnova-vr-booking/internal/handler"
	"github.com/iliyamo/qnova-vr-booking/internal/middleware"
)

// bodyLimit caps request bodies on every route.
const bodyLimit = "1M"

// Handlers are the route targets.  Payments may be nil, in which case the
// payment routes are not registered.
type Handlers struct {
	Calendar *handler.CalendarHandler
	Bookings *handler.BookingHandler
	Contact  *handler.ContactHandler
	Payments *handler.PaymentHandler
	Admin    *handler.AdminHandler
	Checks   map[string]handler.Check
}

// New builds the echo instance with the shared middleware stack and every
// route.  rdb may be nil, which disables rate limiting and caching.
func New(cfg config.Config, h Handlers, rdb *redis.Client, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.AccessLog(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSAllowOrigins}))
	e.Use(echomw.BodyLimit(bodyLimit))

	RegisterRoutes(e, h.Checks)

	api := e.Group("/api")
	api.GET("/", handler.Root)

	limit := middleware.RateLimit(cfg.RateLimit, rdb, log)
	cache := middleware.ResponseCache(cfg.Cache, rdb, log)
	admin := []echo.MiddlewareFunc{
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(handler.RoleAdmin),
	}

	RegisterCalendar(api, h.Calendar, limit, admin)
	RegisterPublic(api, h.Bookings, h.Contact, limit, cache, admin)
	if h.Payments != nil {
		RegisterPayments(api, h.Payments, limit)
	}
	RegisterAdmin(api, h.Admin, limit, admin)
	return e
}

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, checks map[string]handler.Check) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(checks))
}

// RegisterCalendar registers the slot calendar.  Reads, generation and slot
// booking are public; slot mutation needs an admin token.
func RegisterCalendar(g *echo.Group, h *handler.CalendarHandler, limit echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g.GET("/calendar/:date", h.Day)
	g.GET("/calendar/range/:start/:end", h.Range)
	g.POST("/calendar/generate-slots/:date", h.Generate, limit)
	g.POST("/calendar/book-slot/:id", h.BookSlot, limit)
	g.GET("/availability/:date", h.Availability)

	slots := g.Group("/calendar/slots", admin...)
	slots.POST("", h.CreateSlot)
	slots.PUT("/:id", h.UpdateSlot)
	slots.DELETE("/:id", h.DeleteSlot)
}

// RegisterPublic registers the booking form, the game catalog and the
// contact form, plus their admin listings.
func RegisterPublic(g *echo.Group, b *handler.BookingHandler, ct *handler.ContactHandler, limit, cache echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g.POST("/bookings", b.Create, limit)
	g.GET("/bookings", b.List, admin...)
	g.GET("/bookings/:id", b.Get, admin...)

	g.GET("/games", handler.Games, cache)

	g.POST("/contact", ct.Create, limit)
	g.GET("/contact", ct.List, admin...)
}

// RegisterPayments registers checkout, status polling and the webhook.
func RegisterPayments(g *echo.Group, h *handler.PaymentHandler, limit echo.MiddlewareFunc) {
	g.POST("/payments/checkout", h.Checkout, limit)
	g.GET("/payments/status/:session_id", h.Status)
	g.POST("/webhook/stripe", h.Webhook)
}

// RegisterAdmin registers login and the admin tools.
func RegisterAdmin(g *echo.Group, h *handler.AdminHandler, limit echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g.POST("/admin/login", h.Login, limit)

	a := g.Group("/admin", admin...)
	a.GET("/bookings/today", h.TodayBookings)
	a.POST("/test-mode/create-bookings", h.CreateTestBookings)
	a.DELETE("/test-mode/clear-test-data", h.ClearTestData)
}
