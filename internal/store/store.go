package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kachinev700-sketch/creatium-qr/internal/config"
)

var ErrNotFound = errors.New("store key not found")

// Store is a short-lived key-value capability. Values expire after ttl;
// implementations never guarantee consistency with the payment provider.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// New opens the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.StoreMemory:
		return NewMemory(time.Minute), nil
	case config.StoreBunt:
		return OpenBunt(cfg.BuntPath)
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// OperationKey maps a checkout operation id to the provider's id.
func OperationKey(operationID string) string {
	return "op:" + operationID
}

// CallbackKey holds the last callback body seen for an operation.
func CallbackKey(operationID string) string {
	return "callback:" + operationID
}
