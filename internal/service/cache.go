package service

import (
	"context"

	"github.com/google/uuid"
)

// ProviderCache — кэш публичных карточек исполнителей (ключ — id профиля).
type ProviderCache interface {
	GetProvider(ctx context.Context, id uuid.UUID, dst any) (bool, error)
	SetProvider(ctx context.Context, id uuid.UUID, v any) error
	InvalidateProvider(ctx context.Context, id uuid.UUID) error
}

type noopCache struct{}

func (noopCache) GetProvider(context.Context, uuid.UUID, any) (bool, error) { return false, nil }
func (noopCache) SetProvider(context.Context, uuid.UUID, any) error         { return nil }
func (noopCache) InvalidateProvider(context.Context, uuid.UUID) error       { return nil }

func cacheOrNoop(c ProviderCache) ProviderCache {
	if c == nil {
		return noopCache{}
	}
	return c
}
