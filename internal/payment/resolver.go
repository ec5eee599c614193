package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kachinev700-sketch/creatium-qr/internal/integrations/qrm"
	"github.com/kachinev700-sketch/creatium-qr/internal/store"
)

// Strategy is one named way of learning an operation's status.
type Strategy interface {
	Name() string
	Lookup(ctx context.Context, operationID string) (Info, error)
}

// Observer is notified of every strategy attempt.
type Observer interface {
	StrategyAttempt(name string, err error)
}

// Resolver tries strategies in order; the first that succeeds is taken as
// authoritative with no cross-validation.
type Resolver struct {
	strategies []Strategy
	policy     Policy
	mappings   store.Store
	observer   Observer
	logger     *slog.Logger
}

type ResolverOption func(*Resolver)

func WithPolicy(p Policy) ResolverOption {
	return func(r *Resolver) { r.policy = p }
}

// WithMappings lets the resolver translate checkout operation ids into the
// provider ids recorded by the callback receiver.
func WithMappings(s store.Store) ResolverOption {
	return func(r *Resolver) { r.mappings = s }
}

func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

func NewResolver(strategies []Strategy, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		strategies: strategies,
		policy:     DefaultPolicy,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never returns an error: failures are folded into the Result.
func (r *Resolver) Resolve(ctx context.Context, operationID string) Result {
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return Result{Status: StatusError, Error: "Operation ID required"}
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if len(r.strategies) == 0 {
		return Result{Status: StatusAPIError, Error: "no status strategies configured"}
	}

	target := r.providerID(ctx, operationID)
	logger := r.logger.With("operation_id", operationID)
	if target != operationID {
		logger = logger.With("provider_id", target)
	}

	var lastErr error
	for _, s := range r.strategies {
		info, err := s.Lookup(ctx, target)
		if r.observer != nil {
			r.observer.StrategyAttempt(s.Name(), err)
		}
		if err != nil {
			logger.Debug("status_strategy", "strategy", s.Name(), "status", "failed", "error", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if info.Endpoint == "" {
			info.Endpoint = s.Name()
		}
		res := r.policy.Evaluate(info)
		logger.Info("status_strategy", "strategy", s.Name(), "status", res.Status, "code", res.StatusCode)
		return res
	}

	logger.Warn("status_strategy", "status", "all_failed", "error", lastErr)
	return Result{
		Status: StatusAPIError,
		Error:  fmt.Sprintf("All API endpoints failed: %v", lastErr),
	}
}

func (r *Resolver) providerID(ctx context.Context, operationID string) string {
	if r.mappings == nil {
		return operationID
	}
	mapped, err := r.mappings.Get(ctx, store.OperationKey(operationID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("status_mapping", "status", "lookup_failed", "operation_id", operationID, "error", err)
		}
		return operationID
	}
	if mapped = strings.TrimSpace(mapped); mapped != "" {
		return mapped
	}
	return operationID
}

// StatusFetcher is the provider capability the endpoint strategies need.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, ep qrm.Endpoint, operationID string) ([]byte, error)
}

type endpointStrategy struct {
	endpoint qrm.Endpoint
	fetcher  StatusFetcher
}

func (s endpointStrategy) Name() string { return s.endpoint.Name }

func (s endpointStrategy) Lookup(ctx context.Context, operationID string) (Info, error) {
	body, err := s.fetcher.FetchStatus(ctx, s.endpoint, operationID)
	if err != nil {
		return Info{}, err
	}
	info, err := ExtractStatus(body, operationID)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", s.endpoint.Name, err)
	}
	info.Endpoint = s.endpoint.Name
	return info, nil
}

// ProviderStrategies wraps each provider status endpoint, in probing order.
func ProviderStrategies(f StatusFetcher) []Strategy {
	endpoints := qrm.StatusEndpoints()
	out := make([]Strategy, 0, len(endpoints))
	for _, ep := range endpoints {
		out = append(out, endpointStrategy{endpoint: ep, fetcher: f})
	}
	return out
}

// CallbackStrategyName is reported as the endpoint when status came from a
// stored provider callback.
const CallbackStrategyName = "callback"

type callbackStrategy struct {
	store store.Store
}

// CallbackStrategy reads the last callback body stored for the operation.
func CallbackStrategy(s store.Store) Strategy {
	return callbackStrategy{store: s}
}

func (s callbackStrategy) Name() string { return CallbackStrategyName }

func (s callbackStrategy) Lookup(ctx context.Context, operationID string) (Info, error) {
	body, err := s.store.Get(ctx, store.CallbackKey(operationID))
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", CallbackStrategyName, err)
	}
	info, err := ExtractStatus([]byte(body), operationID)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", CallbackStrategyName, err)
	}
	if info.Code == "" {
		return Info{}, fmt.Errorf("%s: payload has no status", CallbackStrategyName)
	}
	info.Endpoint = CallbackStrategyName
	return info, nil
}
