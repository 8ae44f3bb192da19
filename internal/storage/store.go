// Package storage is the key-value persistence contract every repository is built
// on: opaque keys mapping to JSON blobs.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

type Store interface {
	// Get returns found=false, err=nil for a missing key.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Load reads key into a T. Missing keys and blobs that do not decode both yield the
// zero T; corruption is logged and never returned. Only backend failures are errors.
func Load[T any](ctx context.Context, s Store, key string, log logger.ZapLogger) (T, error) {
	var out T
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return out, fmt.Errorf("storage get %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return out, nil
	}
	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Warn("Recovered corrupted stored value to default",
			zap.String("key", key),
			zap.Int("bytes", len(raw)),
			zap.Error(fmt.Errorf("%w: %v", model.ErrPersistenceCorruption, err)),
		)
		return out, nil
	}
	return decoded, nil
}

func Save[T any](ctx context.Context, s Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("storage set %s: %w", key, err)
	}
	return nil
}
