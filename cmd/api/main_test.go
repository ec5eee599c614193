package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kachinev700-sketch/creatium-qr/internal/config"
	"github.com/kachinev700-sketch/creatium-qr/internal/http/handlers"
	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/metrics"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
	"github.com/kachinev700-sketch/creatium-qr/internal/store"
)

func testRouter(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg := &config.Config{
		Env:            "test",
		PublicBaseURL:  "https://pay.example.com",
		RequestTimeout: 5 * time.Second,
		CORSOrigins:    origins,
		QRM:            config.QRMConfig{APIKey: "secret-key", BaseURL: "http://127.0.0.1:1", QRSize: 400},
		Store:          config.StoreConfig{Driver: config.StoreMemory, TTL: time.Hour},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	m := metrics.New()
	qrClient := qrm.NewClient(qrm.Config{BaseURL: cfg.QRM.BaseURL, APIKey: cfg.QRM.APIKey}, nil, logger)
	resolver := payment.NewResolver(nil, logger)
	h := handlers.New(cfg, qrClient, resolver, mem, m, logger)
	return newRouter(cfg, h, m, logger)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterPreflight(t *testing.T) {
	t.Parallel()

	router := testRouter(t)
	for _, target := range []string{"/api/payment", "/api/check-status", "/api/callback"} {
		req := httptest.NewRequest(http.MethodOptions, target, nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")

		rec := serve(router, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s: expected allow origin *, got %q", target, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
			t.Fatalf("%s: expected POST in allowed methods, got %q", target, got)
		}
	}
}

func TestRouterPreflightRestrictedOrigin(t *testing.T) {
	t.Parallel()

	router := testRouter(t, "https://shop.example.com")
	req := httptest.NewRequest(http.MethodOptions, "/api/payment", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serve(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestRouterBareOptions(t *testing.T) {
	t.Parallel()

	router := testRouter(t)
	for _, target := range []string{"/api/payment", "/", "/no/such/route"} {
		rec := serve(router, httptest.NewRequest(http.MethodOptions, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	t.Parallel()

	router := testRouter(t)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `creatium_qr_http_requests_total{route="/healthz",status="200"} 1`) {
		t.Fatalf("expected healthz request in metrics, got %s", rec.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	t.Parallel()

	rec := serve(testRouter(t), httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
