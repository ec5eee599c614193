package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kachinev700-sketch/creatium-qr/internal/config"
	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/metrics"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
	"github.com/kachinev700-sketch/creatium-qr/internal/store"

	"github.com/go-chi/chi/v5"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

type fakeQR struct {
	mu       sync.Mutex
	op       qrm.Operation
	err      error
	requests []qrm.CreateQRCodeRequest
}

func (f *fakeQR) CreateQRCode(_ context.Context, in qrm.CreateQRCodeRequest) (qrm.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, in)
	return f.op, f.err
}

func (f *fakeQR) last(t *testing.T) qrm.CreateQRCodeRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("expected a QR request")
	}
	return f.requests[len(f.requests)-1]
}

type fakeResolver struct {
	res   payment.Result
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, operationID string) payment.Result {
	f.calls = append(f.calls, operationID)
	return f.res
}

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		PublicBaseURL:  "https://pay.example.com",
		RequestTimeout: 5 * time.Second,
		QRM: config.QRMConfig{
			APIKey:         "secret-key",
			QRSize:         400,
			PaymentPurpose: "Оплата услуг",
		},
		Page: config.PageConfig{
			SuccessURL:   "https://shop.example.com/ok",
			FailURL:      "https://shop.example.com/fail",
			PollInterval: 10 * time.Second,
			InitialDelay: 3 * time.Second,
			RedirectWait: 5 * time.Second,
		},
		Store: config.StoreConfig{Driver: config.StoreMemory, TTL: time.Hour},
	}
}

type testEnv struct {
	h        *Handler
	qr       *fakeQR
	resolver *fakeResolver
	store    *store.Memory
	router   chi.Router
}

func newTestEnv(cfg *config.Config, resolver StatusResolver) *testEnv {
	env := &testEnv{
		qr:    &fakeQR{op: qrm.Operation{OperationID: "prov-1", QRImage: "https://qr.example/1.png"}},
		store: store.NewMemory(time.Minute),
	}
	if resolver == nil {
		env.resolver = &fakeResolver{}
		resolver = env.resolver
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.h = New(cfg, env.qr, resolver, env.store, metrics.New(), logger)
	env.h.now = func() time.Time { return fixedNow }

	r := chi.NewRouter()
	env.h.Mount(r)
	env.router = r
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
