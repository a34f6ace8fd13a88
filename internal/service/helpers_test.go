package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/cache"
	"github.com/Leganyst/service-marketplace/internal/geo"
)

type fakeResolver struct {
	addr    geo.Address
	ok      bool
	queries []geo.AddressQuery
}

func (f *fakeResolver) Resolve(_ context.Context, q geo.AddressQuery) (geo.Address, bool) {
	f.queries = append(f.queries, q)
	return f.addr, f.ok
}

func resolvedSaoPaulo() *fakeResolver {
	return &fakeResolver{ok: true, addr: geo.Address{
		Latitude: -23.5505, Longitude: -46.6333,
		City: "São Paulo", Neighborhood: "Sé", State: "SP",
		Source: "primary",
	}}
}

func newAccountService(db *gorm.DB, resolver AddressResolver) *AccountService {
	profiles := NewProfileService(db, resolver, nil, nil)
	return NewAccountService(db, profiles, nil, nil).WithHashCost(bcrypt.MinCost)
}

func newRedisCache(t *testing.T) (*miniredis.Miniredis, *cache.ProviderCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, cache.NewProviderCache(cache.NewRedisKVStore(client), time.Minute)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
