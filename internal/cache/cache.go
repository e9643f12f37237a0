// Package cache stores upstream candidate lists (headlines, best sellers,
// films) so a mood cycle does not hit every API each time.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/justestif/go-mood-companion/internal/logx"
)

// Store is a byte-oriented key/value store with per-key expiry.
type Store interface {
	// Get returns the stored value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Fetch returns the cached value for key, or calls load and caches its
// result for ttl. Cache errors are logged and fall through to load.
func Fetch[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if s != nil {
		raw, ok, err := s.Get(ctx, key)
		switch {
		case err != nil:
			logx.Warn().Err(err).Str("key", key).Msg("cache read failed")
		case ok:
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			logx.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		}
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if s != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return v, fmt.Errorf("encoding cache entry %s: %w", key, err)
		}
		if err := s.Set(ctx, key, raw, ttl); err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return v, nil
}
