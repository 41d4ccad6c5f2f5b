package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check is one readiness probe, e.g. a store or Redis ping.
type Check func(ctx context.Context) error

// Health is the liveness probe.  It returns a plain text "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root handles GET /api/.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "QNOVA VR Studio API"})
}

// Ready returns the readiness probe.  Every check must pass within two
// seconds; failures are reported by name with 503.
func Ready(checks map[string]Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		return c.JSON(status, echo.Map{"status": http.StatusText(status), "checks": results})
	}
}
