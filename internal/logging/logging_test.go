package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/kachinev700-sketch/creatium-qr/internal/config"
)

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: "NOT SET"},
		{in: "abc", want: "***"},
		{in: "sk_live_12345678", want: "***5678"},
	}
	for _, tc := range cases {
		if got := MaskSecret(tc.in); got != tc.want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHandlerMasksAPIKey(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, config.LoggingConfig{Level: "debug", Format: "json"}))
	logger.Info("startup", "api_key", "secret-value-9876")

	out := buf.String()
	if strings.Contains(out, "secret-value") {
		t.Fatalf("api key leaked into log: %s", out)
	}
	if !strings.Contains(out, "***9876") {
		t.Fatalf("expected masked key in log: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	if parseLevel("WARNING") != slog.LevelWarn {
		t.Fatalf("expected warn level")
	}
	if parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("expected info fallback")
	}
}
