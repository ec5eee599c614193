package payment

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractStatusShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{
			name:    "wrapped",
			body:    `{"results":{"operation_status_code":5,"operation_status_msg":"Оплачено"}}`,
			code:    "5",
			message: "Оплачено",
		},
		{
			name:    "wrapped fallback keys",
			body:    `{"results":{"status_code":"3","status_msg":"waiting"}}`,
			code:    "3",
			message: "waiting",
		},
		{
			name:    "direct",
			body:    `{"operation_status_code":3,"operation_status_msg":"Создан"}`,
			code:    "3",
			message: "Создан",
		},
		{
			name:    "direct status string",
			body:    `{"status":"PAID","message":"ok"}`,
			code:    "PAID",
			message: "ok",
		},
		{
			name:    "float code",
			body:    `{"status_code":5.0}`,
			code:    "5",
			message: "",
		},
		{
			name:    "search",
			body:    `{"results":[{"operation_id":"other","status":3},{"operation_id":"op-1","status":5,"status_msg":"done"}]}`,
			code:    "5",
			message: "done",
		},
		{
			name:    "search by id",
			body:    `{"results":[{"id":"op-1","operation_status":"created","message":"new"}]}`,
			code:    "created",
			message: "new",
		},
		{
			name: "no status",
			body: `{"foo":"bar"}`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			info, err := ExtractStatus([]byte(tc.body), "op-1")
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if info.Code != tc.code || info.Message != tc.message {
				t.Fatalf("got code=%q message=%q, want code=%q message=%q", info.Code, info.Message, tc.code, tc.message)
			}
			if len(info.Data) == 0 {
				t.Fatalf("expected data to be kept")
			}
		})
	}
}

func TestExtractStatusSearchMiss(t *testing.T) {
	t.Parallel()

	_, err := ExtractStatus([]byte(`{"results":[{"operation_id":"x","status":5}]}`), "op-1")
	if !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestExtractStatusMalformed(t *testing.T) {
	t.Parallel()

	_, err := ExtractStatus([]byte(`<html>502</html>`), "op-1")
	if err == nil || !strings.Contains(err.Error(), "decode status payload") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestExtractedDataScopesToOperation(t *testing.T) {
	t.Parallel()

	info, err := ExtractStatus([]byte(`{"results":{"operation_status_code":5,"qr_img":"x"}}`), "op-1")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(string(info.Data), `{"operation_status_code"`) {
		t.Fatalf("expected data to be the results object, got %s", info.Data)
	}
}
