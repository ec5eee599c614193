package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type sample struct {
	route  string
	status int
}

type recordingObserver struct {
	samples []sample
}

func (o *recordingObserver) ObserveRequest(route string, status int, _ float64) {
	o.samples = append(o.samples, sample{route: route, status: status})
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	obs := &recordingObserver{}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logger, obs))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/42?x=1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	if len(obs.samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(obs.samples))
	}
	if obs.samples[0] != (sample{route: "/orders/{id}", status: http.StatusTeapot}) {
		t.Fatalf("unexpected first sample: %#v", obs.samples[0])
	}
	if obs.samples[1] != (sample{route: "/plain", status: http.StatusOK}) {
		t.Fatalf("unexpected second sample: %#v", obs.samples[1])
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `query="x=1"`) || !strings.Contains(out, "request_id=") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestRequestLoggerWithoutObserver(t *testing.T) {
	h := RequestLogger(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
