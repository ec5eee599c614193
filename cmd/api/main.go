package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kachinev700-sketch/creatium-qr/internal/config"
	"github.com/kachinev700-sketch/creatium-qr/internal/http/handlers"
	"github.com/kachinev700-sketch/creatium-qr/internal/http/middleware"
	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/logging"
	"github.com/kachinev700-sketch/creatium-qr/internal/metrics"
	"github.com/kachinev700-sketch/creatium-qr/internal/payment"
	"github.com/kachinev700-sketch/creatium-qr/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "api", "env", cfg.Env)
	slog.SetDefault(logger)

	if cfg.HasAPIKey() {
		logger.Info("qrm_config", "api_key", cfg.QRM.APIKey, "base_url", cfg.QRM.BaseURL)
	} else {
		logger.Warn("qrm_config", "status", "missing_api_key", "env", "QR_API_KEY")
	}

	ctx := context.Background()
	mappings, err := store.New(ctx, cfg.Store)
	if err != nil {
		logger.Error("store error", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = mappings.Close()
	}()

	m := metrics.New()
	qrClient := qrm.NewClient(qrm.Config{
		BaseURL: cfg.QRM.BaseURL,
		APIKey:  cfg.QRM.APIKey,
		Timeout: cfg.QRM.Timeout,
	}, nil, logger)

	strategies := append(payment.ProviderStrategies(qrClient), payment.CallbackStrategy(mappings))
	resolver := payment.NewResolver(strategies, logger,
		payment.WithPolicy(payment.Policy{
			Paid:    cfg.Status.PaidCodes,
			Pending: cfg.Status.PendingCodes,
		}),
		payment.WithMappings(mappings),
		payment.WithObserver(m),
	)

	h := handlers.New(cfg, qrClient, resolver, mappings, m, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(cfg, h, m, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
}

func newRouter(cfg *config.Config, h *handlers.Handler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger, m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(middleware.OptionsOK)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	h.Mount(r)
	return r
}
