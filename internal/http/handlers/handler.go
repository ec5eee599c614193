package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kachinev700-sketch/creatium-qr/internal/config"
	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/metrics"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
	"github.com/kachinev700-sketch/creatium-qr/internal/store"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// QRIssuer creates provider payment operations.
type QRIssuer interface {
	CreateQRCode(ctx context.Context, in qrm.CreateQRCodeRequest) (qrm.Operation, error)
}

// StatusResolver reconciles an operation's payment status.
type StatusResolver interface {
	Resolve(ctx context.Context, operationID string) payment.Result
}

type Handler struct {
	cfg       *config.Config
	qr        QRIssuer
	resolver  StatusResolver
	store     store.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

func New(cfg *config.Config, qr QRIssuer, resolver StatusResolver, st store.Store, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:       cfg,
		qr:        qr,
		resolver:  resolver,
		store:     st,
		metrics:   m,
		logger:    logger,
		validator: validator.New(),
		now:       time.Now,
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := h.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// callbackURL is the notification_url handed to the provider.
func (h *Handler) callbackURL(query url.Values) string {
	target := h.cfg.PublicBaseURL + "/api/callback"
	if len(query) == 0 {
		return target
	}
	return target + "?" + query.Encode()
}

func (h *Handler) pageURL(query url.Values) string {
	return h.cfg.PublicBaseURL + "/?" + query.Encode()
}

func (h *Handler) successURL(orderID, key, value string) string {
	return withQuery(h.cfg.Page.SuccessURL, url.Values{
		"order_id": {orderID},
		key:        {value},
		"status":   {"success"},
		"paid":     {"true"},
	})
}

func (h *Handler) failURL(orderID string) string {
	return withQuery(h.cfg.Page.FailURL, url.Values{
		"order_id": {orderID},
		"status":   {"failed"},
		"paid":     {"false"},
	})
}

func withQuery(base string, query url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + query.Encode()
	}
	existing := u.Query()
	for key, values := range query {
		existing[key] = values
	}
	u.RawQuery = existing.Encode()
	return u.String()
}

// rememberOperation maps a checkout-side operation id to the provider's.
func (h *Handler) rememberOperation(ctx context.Context, logger *slog.Logger, checkoutID, providerID string) {
	if h.store == nil || checkoutID == "" || providerID == "" || checkoutID == providerID {
		return
	}
	if err := h.store.Put(ctx, store.OperationKey(checkoutID), providerID, h.cfg.Store.TTL); err != nil {
		logger.Warn("operation_mapping", "status", "store_error", "operation_id", checkoutID, "provider_id", providerID, "error", err)
		return
	}
	logger.Info("operation_mapping", "status", "stored", "operation_id", checkoutID, "provider_id", providerID)
}
