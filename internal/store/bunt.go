package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/buntdb"
)

// Bunt stores mappings in buntdb, either in memory (":memory:") or in a file.
type Bunt struct {
	db *buntdb.DB
}

func OpenBunt(path string) (*Bunt, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buntdb %s: %w", path, err)
	}
	return &Bunt{db: db}, nil
}

func (b *Bunt) Get(_ context.Context, key string) (string, error) {
	var out string
	err := b.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key)
		if err != nil {
			return err
		}
		out = val
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return "", ErrNotFound
	}
	return out, err
}

func (b *Bunt) Put(_ context.Context, key, value string, ttl time.Duration) error {
	var opts *buntdb.SetOptions
	if ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: ttl}
	}
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, opts)
		return err
	})
}

func (b *Bunt) Close() error {
	return b.db.Close()
}
