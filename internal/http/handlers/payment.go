package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
)

const (
	flowCheckout = "checkout"
	flowPage     = "page"
	flowTest     = "test"

	testOrderID   = "test"
	testPaymentID = "test"
	pagePaymentID = "from_get"
)

type checkoutResponse struct {
	Success     bool        `json:"success"`
	Form        string      `json:"form,omitempty"`
	URL         string      `json:"url,omitempty"`
	Amount      json.Number `json:"amount,omitempty"`
	OrderID     string      `json:"order_id,omitempty"`
	PaymentID   string      `json:"payment_id,omitempty"`
	OperationID string      `json:"operation_id,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// CreatePayment handles the Creatium checkout webhook. Every outcome is a 200
// JSON envelope; failures carry an HTML error fragment in form.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.cfg.HasAPIKey() {
		logger.Error("create_payment", "status", "missing_api_key")
		h.writeCheckoutError(w, qrm.ErrAPIKeyMissing.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("create_payment", "status", "read_error", "error", err)
		h.writeCheckoutError(w, "could not read request body")
		return
	}
	intent, err := payment.ParseCheckout(body, h.now())
	if err != nil {
		logger.Warn("create_payment", "status", "invalid_payload", "bytes", len(body), "error", err)
		h.writeCheckoutError(w, "Invalid JSON from Creatium")
		return
	}
	logger = logger.With("order_id", intent.OrderID, "payment_id", intent.PaymentID)

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	op, err := h.qr.CreateQRCode(ctx, qrm.CreateQRCodeRequest{
		Sum:            intent.MinorUnits,
		QRSize:         h.cfg.QRM.QRSize,
		PaymentPurpose: h.cfg.QRM.PaymentPurpose,
		NotificationURL: h.callbackURL(url.Values{
			"order_id":   {intent.OrderID},
			"payment_id": {intent.PaymentID},
		}),
	})
	h.metrics.QRIssue(flowCheckout, err)
	if err != nil {
		logQRError(logger, "create_payment", err)
		h.writeCheckoutError(w, err.Error())
		return
	}

	operationID := op.OperationID
	if operationID == "" {
		operationID = intent.PaymentID
	}
	logger = logger.With("operation_id", operationID)

	form, err := renderPaymentPage(h.newPageData(
		intent.OrderID,
		operationID,
		intent.PaymentID,
		intent.Amount.String(),
		op.QRImage,
		h.successURL(intent.OrderID, "payment_id", intent.PaymentID),
		h.failURL(intent.OrderID),
	))
	if err != nil {
		logger.Error("create_payment", "status", "render_error", "error", err)
		h.writeCheckoutError(w, "could not render payment page")
		return
	}

	logger.Info("create_payment", "status", "ok", "sum", intent.MinorUnits)
	writeJSON(w, http.StatusOK, checkoutResponse{
		Success: true,
		Form:    form,
		URL: h.pageURL(url.Values{
			"sum":          {intent.Amount.String()},
			"order_id":     {intent.OrderID},
			"operation_id": {operationID},
		}),
		Amount:      intent.AmountNumber(),
		OrderID:     intent.OrderID,
		PaymentID:   intent.PaymentID,
		OperationID: operationID,
	})
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, checkoutResponse{
		Success: false,
		Form:    renderErrorPage(message),
		Error:   message,
	})
}

// PaymentPage renders the payment page for direct links. With sum, order_id
// and operation_id it issues a fresh QR for that operation; without them it
// issues a test QR.
func (h *Handler) PaymentPage(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.cfg.HasAPIKey() {
		logger.Error("payment_page", "status", "missing_api_key")
		writeHTML(w, http.StatusOK, renderErrorPage(qrm.ErrAPIKeyMissing.Error()))
		return
	}

	q := r.URL.Query()
	sum := strings.TrimSpace(q.Get("sum"))
	orderID := strings.TrimSpace(q.Get("order_id"))
	operationID := strings.TrimSpace(q.Get("operation_id"))

	amount, err := payment.ParseAmount(sum)
	if err != nil {
		logger.Warn("payment_page", "status", "invalid_amount", "sum", sum)
		writeHTML(w, http.StatusOK, renderErrorPage("invalid amount"))
		return
	}
	intent, err := payment.NewIntent(amount)
	if err != nil {
		logger.Warn("payment_page", "status", "invalid_amount", "sum", sum)
		writeHTML(w, http.StatusOK, renderErrorPage("invalid amount"))
		return
	}

	flow := flowPage
	notify := url.Values{"order_id": {orderID}, "operation_id": {operationID}}
	if sum == "" || orderID == "" || operationID == "" {
		flow = flowTest
		notify = nil
	}
	logger = logger.With("flow", flow, "order_id", orderID, "operation_id", operationID)

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	op, err := h.qr.CreateQRCode(ctx, qrm.CreateQRCodeRequest{
		Sum:             intent.MinorUnits,
		QRSize:          h.cfg.QRM.QRSize,
		PaymentPurpose:  h.cfg.QRM.PaymentPurpose,
		NotificationURL: h.callbackURL(notify),
	})
	h.metrics.QRIssue(flow, err)
	if err != nil {
		logQRError(logger, "payment_page", err)
		writeHTML(w, http.StatusOK, renderErrorPage(err.Error()))
		return
	}

	var data paymentPageData
	if flow == flowPage {
		// The page keeps polling the linked operation id; the fresh provider
		// operation is reachable through the mapping.
		h.rememberOperation(ctx, logger, operationID, op.OperationID)
		data = h.newPageData(
			orderID, operationID, pagePaymentID, intent.Amount.String(), op.QRImage,
			h.successURL(orderID, "operation_id", operationID),
			h.failURL(orderID),
		)
	} else {
		if orderID == "" {
			orderID = testOrderID
		}
		testOperationID := op.OperationID
		if testOperationID == "" {
			testOperationID = "test_" + strconv.FormatInt(h.now().UnixMilli(), 10)
		}
		data = h.newPageData(
			orderID, testOperationID, testPaymentID, intent.Amount.String(), op.QRImage,
			h.successURL(orderID, "operation_id", testOperationID),
			h.failURL(orderID),
		)
	}

	html, err := renderPaymentPage(data)
	if err != nil {
		logger.Error("payment_page", "status", "render_error", "error", err)
		writeHTML(w, http.StatusOK, renderErrorPage("could not render payment page"))
		return
	}
	logger.Info("payment_page", "status", "ok", "provider_id", op.OperationID, "sum", intent.MinorUnits)
	writeHTML(w, http.StatusOK, html)
}

func logQRError(logger *slog.Logger, action string, err error) {
	var apiErr *qrm.APIError
	switch {
	case errors.As(err, &apiErr):
		logger.Error(action, "status", "qrm_error", "http_status", apiErr.StatusCode, "body", truncate(apiErr.Body, 512))
	case errors.Is(err, qrm.ErrMissingQRImage):
		logger.Error(action, "status", "qrm_missing_image")
	case errors.Is(err, qrm.ErrAPIKeyMissing):
		logger.Error(action, "status", "missing_api_key")
	default:
		logger.Error(action, "status", "qrm_request_failed", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:n], len(s))
}
