package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
)

func TestCheckStatus(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{res: payment.Result{
		Success:    true,
		Status:     payment.StatusPaid,
		StatusCode: "5",
		Message:    "Payment successful",
		Endpoint:   "qr-status",
	}}
	env := newTestEnv(testConfig(), resolver)

	for _, target := range []string{"/api/check-status", "/api/payment/check-status"} {
		rec := env.do(http.MethodPost, target, `{"operationId":" op-1 ","forceCheck":true}`)
		expectStatus(t, rec, http.StatusOK)

		var got payment.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Success || got.Status != payment.StatusPaid || got.StatusCode != "5" || got.Endpoint != "qr-status" {
			t.Fatalf("%s: unexpected result %#v", target, got)
		}
	}
	if len(resolver.calls) != 2 || resolver.calls[0] != "op-1" {
		t.Fatalf("unexpected resolver calls: %v", resolver.calls)
	}
}

func TestCheckStatusRejectsBadRequests(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "missing id", body: `{"forceCheck":true}`, wantErr: "Operation ID required"},
		{name: "blank id", body: `{"operationId":"   "}`, wantErr: "Operation ID required"},
		{name: "empty body", body: "", wantErr: "Operation ID required"},
		{name: "bad json", body: `{"operationId":`, wantErr: "invalid json"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resolver := &fakeResolver{}
			env := newTestEnv(testConfig(), resolver)

			rec := env.do(http.MethodPost, "/api/check-status", tc.body)
			expectStatus(t, rec, http.StatusOK)

			var got payment.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Success || got.Status != payment.StatusError || got.Error != tc.wantErr {
				t.Fatalf("unexpected result %#v", got)
			}
			if len(resolver.calls) != 0 {
				t.Fatalf("resolver must not run for a bad request")
			}
		})
	}
}
