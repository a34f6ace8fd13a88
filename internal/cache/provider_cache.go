package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const providerKeyPrefix = "marketplace:provider:"

// ProviderCache хранит карточки исполнителей как JSON с TTL.
type ProviderCache struct {
	store KVStore
	ttl   time.Duration
}

func NewProviderCache(store KVStore, ttl time.Duration) *ProviderCache {
	return &ProviderCache{store: store, ttl: ttl}
}

func providerKey(id uuid.UUID) string {
	return providerKeyPrefix + id.String() + ":detail"
}

// GetProvider декодирует запись в dst; false — промах.
func (c *ProviderCache) GetProvider(ctx context.Context, id uuid.UUID, dst any) (bool, error) {
	raw, err := c.store.Get(ctx, providerKey(id))
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		// битая запись — считаем промахом и убираем
		_ = c.store.Del(ctx, providerKey(id))
		return false, fmt.Errorf("decode cached provider: %w", err)
	}
	return true, nil
}

func (c *ProviderCache) SetProvider(ctx context.Context, id uuid.UUID, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode provider: %w", err)
	}
	return c.store.Set(ctx, providerKey(id), string(raw), c.ttl)
}

func (c *ProviderCache) InvalidateProvider(ctx context.Context, id uuid.UUID) error {
	return c.store.Del(ctx, providerKey(id))
}
