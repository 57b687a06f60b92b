package httpserver_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatrelay/internal/dashboard"
	"chatrelay/internal/httpserver"
	"chatrelay/internal/stats"
	"log/slog"
	"os"
)

func TestRouter_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	registry := stats.NewRegistry(time.Now())
	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:    logger,
		Dashboard: dashboard.NewHandler(registry, logger),
	})

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"GET", "/", "", 200},
		{"GET", "/api/status", "", 200},
		{"GET", "/health", "", 200},
		{"POST", "/webhook", `{"message":{"from":{"id":1}}}`, 200},
		{"GET", "/missing", "", 404},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rr.Code)
		}
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	registry := stats.NewRegistry(time.Now())
	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:    logger,
		Dashboard: dashboard.NewHandler(registry, logger),
	})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header to be set")
	}
}
