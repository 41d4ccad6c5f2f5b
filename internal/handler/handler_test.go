package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", calendar.Validation("invalid date %q", "2025-13-01"), http.StatusBadRequest, `invalid date "2025-13-01"`},
		{"not found", calendar.NotFound("slot %s not found", "s1"), http.StatusNotFound, "slot s1 not found"},
		{"invalid state", fmt.Errorf("%w: slot is booked, not available", calendar.ErrInvalidState), http.StatusConflict, "slot is booked, not available"},
		{"race lost", calendar.ErrSlotTaken, http.StatusConflict, "slot no longer available, please pick another time"},
		{"upstream", calendar.Upstream("list slots", errors.New("dial tcp: refused")), http.StatusBadGateway, "upstream service unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if err := writeError(c, orDiscard(nil), tt.err); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.message {
				t.Fatalf("message = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestReady(t *testing.T) {
	e := echo.New()
	tests := []struct {
		name   string
		checks map[string]Check
		status int
	}{
		{"no checks", nil, http.StatusOK},
		{"all pass", map[string]Check{"store": func(context.Context) error { return nil }}, http.StatusOK},
		{"one fails", map[string]Check{
			"store": func(context.Context) error { return nil },
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/readyz", nil), rec)
			if err := Ready(tt.checks)(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK && !strings.Contains(rec.Body.String(), "connection refused") {
				t.Fatalf("failing check not reported: %s", rec.Body.String())
			}
		})
	}
}

func TestGames(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/games?platform=PlayStation", nil), rec)
	if err := Games(c); err != nil {
		t.Fatal(err)
	}
	var games []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &games); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || len(games) != 2 {
		t.Fatalf("status %d, %d games", rec.Code, len(games))
	}
}
