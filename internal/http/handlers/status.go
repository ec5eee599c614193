package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
)

type checkStatusRequest struct {
	OperationID string `json:"operationId" validate:"required"`
	ForceCheck  bool   `json:"forceCheck"`
}

// CheckStatus answers the payment page's poll. The response is always 200
// with a payment.Result body.
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.cfg.HasAPIKey() {
		logger.Error("check_status", "status", "missing_api_key")
		h.writeStatus(w, payment.Result{Status: payment.StatusError, Error: qrm.ErrAPIKeyMissing.Error()})
		return
	}

	var req checkStatusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
		logger.Warn("check_status", "status", "invalid_json", "error", err)
		h.writeStatus(w, payment.Result{Status: payment.StatusError, Error: "invalid json"})
		return
	}
	req.OperationID = strings.TrimSpace(req.OperationID)
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("check_status", "status", "invalid_request", "error", err)
		h.writeStatus(w, payment.Result{Status: payment.StatusError, Error: "Operation ID required"})
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	res := h.resolver.Resolve(ctx, req.OperationID)
	logger.Info("check_status",
		"status", res.Status,
		"operation_id", req.OperationID,
		"force", req.ForceCheck,
		"code", res.StatusCode,
		"endpoint", res.Endpoint,
	)
	h.writeStatus(w, res)
}

func (h *Handler) writeStatus(w http.ResponseWriter, res payment.Result) {
	h.metrics.StatusCheck(string(res.Status))
	writeJSON(w, http.StatusOK, res)
}
