package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
	"github.com/kachinev700-sketch/creatium-qr/internal/store"
)

type callbackResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// PaymentCallback receives the provider webhook. It never fails the provider:
// parse and store problems are logged and the answer is still 200.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.cfg.HasAPIKey() {
		logger.Error("payment_callback", "status", "missing_api_key")
		writeJSON(w, http.StatusOK, callbackResponse{Success: false, Error: qrm.ErrAPIKeyMissing.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("payment_callback", "status", "read_error", "error", err)
	}

	q := r.URL.Query()
	checkoutID := strings.TrimSpace(q.Get("operation_id"))
	if checkoutID == "" {
		checkoutID = strings.TrimSpace(q.Get("payment_id"))
	}
	logger = logger.With("order_id", q.Get("order_id"), "checkout_id", checkoutID)

	cb, err := payment.ParseCallback(body)
	if err != nil {
		h.metrics.Callback("invalid")
		logger.Warn("payment_callback", "status", "invalid_json", "bytes", len(body), "error", err)
		writeJSON(w, http.StatusOK, callbackResponse{Success: true, Message: "Callback received", Data: json.RawMessage("{}")})
		return
	}
	h.metrics.Callback("parsed")
	logger = logger.With("provider_id", cb.OperationID)

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	h.rememberOperation(ctx, logger, checkoutID, cb.OperationID)
	for _, id := range uniqueIDs(cb.OperationID, checkoutID) {
		if h.store == nil {
			break
		}
		if err := h.store.Put(ctx, store.CallbackKey(id), string(cb.Raw), h.cfg.Store.TTL); err != nil {
			logger.Warn("payment_callback", "status", "store_error", "key", store.CallbackKey(id), "error", err)
		}
	}

	logger.Info("payment_callback", "status", "received", "bytes", len(body))
	writeJSON(w, http.StatusOK, callbackResponse{Success: true, Message: "Callback received", Data: cb.Raw})
}

func uniqueIDs(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == id {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}
