package geo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// coordinatePrecision — знаков после запятой у сохраняемых координат.
const coordinatePrecision = 8

// AddressQuery — вход резолвера: CEP плюс необязательные улица и номер дома.
type AddressQuery struct {
	PostalCode string
	Street     string
	Number     string
}

// Address — полный результат: обе координаты и текст адреса.
type Address struct {
	Latitude     float64
	Longitude    float64
	City         string
	Neighborhood string
	State        string
	Source       string
}

// Sleeper ждёт d или отмену контекста.
type Sleeper func(ctx context.Context, d time.Duration) error

// Resolver переводит CEP в координаты: сначала основной провайдер,
// затем резервный текстовый провайдер + геокодер с сужающимися запросами.
type Resolver struct {
	primary   PostalLookup
	secondary PostalLookup
	geocoder  Geocoder
	logger    *zap.Logger

	primaryTimeout  time.Duration
	geocoderTimeout time.Duration
	retryDelay      time.Duration
	sleep           Sleeper
}

type ResolverOption func(*Resolver)

func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithTimeouts(primary, geocoder time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.primaryTimeout = primary
		r.geocoderTimeout = geocoder
	}
}

// WithRetryDelay задаёт паузу между попытками геокодера.
func WithRetryDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.retryDelay = d }
}

func WithSleeper(s Sleeper) ResolverOption {
	return func(r *Resolver) {
		if s != nil {
			r.sleep = s
		}
	}
}

func NewResolver(primary, secondary PostalLookup, geocoder Geocoder, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		primary:         primary,
		secondary:       secondary,
		geocoder:        geocoder,
		logger:          zap.NewNop(),
		primaryTimeout:  5 * time.Second,
		geocoderTimeout: 10 * time.Second,
		retryDelay:      time.Second,
		sleep:           sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve никогда не возвращает ошибку: либо полный адрес с координатами, либо false.
func (r *Resolver) Resolve(ctx context.Context, q AddressQuery) (Address, bool) {
	cep, ok := NormalizePostalCode(q.PostalCode)
	if !ok {
		r.logger.Debug("invalid postal code, skipping resolution", zap.String("postal_code", q.PostalCode))
		return Address{}, false
	}
	log := r.logger.With(zap.String("postal_code", cep))

	if addr, ok := r.resolvePrimary(ctx, cep, log); ok {
		return addr, true
	}

	log.Debug("primary provider gave no coordinates, falling back")
	return r.resolveFallback(ctx, cep, q, log)
}

func (r *Resolver) resolvePrimary(ctx context.Context, cep string, log *zap.Logger) (Address, bool) {
	if r.primary == nil {
		return Address{}, false
	}

	ctx, cancel := withTimeout(ctx, r.primaryTimeout)
	defer cancel()

	rec, err := r.primary.Lookup(ctx, cep)
	if err != nil {
		log.Warn("primary postal lookup failed", zap.Error(err))
		return Address{}, false
	}
	if rec == nil || rec.Latitude == nil || rec.Longitude == nil {
		return Address{}, false
	}

	return Address{
		Latitude:     Round(*rec.Latitude, coordinatePrecision),
		Longitude:    Round(*rec.Longitude, coordinatePrecision),
		City:         rec.City,
		Neighborhood: rec.Neighborhood,
		State:        rec.State,
		Source:       "primary",
	}, true
}

func (r *Resolver) resolveFallback(ctx context.Context, cep string, q AddressQuery, log *zap.Logger) (Address, bool) {
	if r.secondary == nil || r.geocoder == nil {
		return Address{}, false
	}

	lookupCtx, cancel := withTimeout(ctx, r.primaryTimeout)
	rec, err := r.secondary.Lookup(lookupCtx, cep)
	cancel()
	if err != nil || rec == nil {
		log.Warn("secondary postal lookup failed", zap.Error(err))
		return Address{}, false
	}

	street := strings.TrimSpace(q.Street)
	if street == "" {
		street = rec.Street
	}

	for i, query := range fallbackQueries(street, strings.TrimSpace(q.Number), rec.City, rec.State) {
		if i > 0 {
			if err := r.sleep(ctx, r.retryDelay); err != nil {
				log.Warn("geocoding aborted", zap.Error(err))
				return Address{}, false
			}
		}

		log.Debug("geocoding attempt", zap.Int("attempt", i+1), zap.String("query", query))
		res, err := r.geocode(ctx, query)
		if err != nil {
			log.Warn("geocoding attempt failed", zap.Int("attempt", i+1), zap.Error(err))
			continue
		}
		if res == nil {
			continue
		}

		return Address{
			Latitude:     Round(res.Latitude, coordinatePrecision),
			Longitude:    Round(res.Longitude, coordinatePrecision),
			City:         rec.City,
			Neighborhood: rec.Neighborhood,
			State:        rec.State,
			Source:       "geocoder",
		}, true
	}

	log.Info("address could not be resolved")
	return Address{}, false
}

func (r *Resolver) geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	ctx, cancel := withTimeout(ctx, r.geocoderTimeout)
	defer cancel()
	return r.geocoder.Geocode(ctx, query)
}

// fallbackQueries — от самого точного к самому общему. Запросы без улицы (или номера) пропускаются.
func fallbackQueries(street, number, city, state string) []string {
	place := fmt.Sprintf("%s - %s, Brasil", city, state)
	queries := make([]string, 0, 3)
	if street != "" && number != "" {
		queries = append(queries, fmt.Sprintf("%s, %s, %s", street, number, place))
	}
	if street != "" {
		queries = append(queries, fmt.Sprintf("%s, %s", street, place))
	}
	if city != "" || state != "" {
		queries = append(queries, place)
	}
	return queries
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
