package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	rec   *PostalRecord
	err   error
	calls int
}

func (f *fakeLookup) Lookup(_ context.Context, _ string) (*PostalRecord, error) {
	f.calls++
	return f.rec, f.err
}

type fakeGeocoder struct {
	// ответы по номеру попытки; nil — пусто
	results map[int]*GeocodingResult
	errs    map[int]error
	queries []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, q string) (*GeocodingResult, error) {
	f.queries = append(f.queries, q)
	n := len(f.queries)
	if err := f.errs[n]; err != nil {
		return nil, err
	}
	return f.results[n], nil
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func newTestResolver(primary, secondary PostalLookup, g Geocoder, s *sleepRecorder) *Resolver {
	return NewResolver(primary, secondary, g,
		WithSleeper(s.sleep),
		WithRetryDelay(time.Second),
		WithTimeouts(time.Second, time.Second),
	)
}

func TestResolve_InvalidPostalCodeMakesNoCalls(t *testing.T) {
	primary := &fakeLookup{}
	secondary := &fakeLookup{}
	geocoder := &fakeGeocoder{}
	r := newTestResolver(primary, secondary, geocoder, &sleepRecorder{})

	for _, cep := range []string{"", "123", "0100-100", "01001-0000", "abcdefgh"} {
		_, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: cep})
		assert.False(t, ok, cep)
	}
	assert.Zero(t, primary.calls)
	assert.Zero(t, secondary.calls)
	assert.Empty(t, geocoder.queries)
}

func TestResolve_PrimaryWithCoordinates(t *testing.T) {
	primary := &fakeLookup{rec: &PostalRecord{
		City: "São Paulo", Neighborhood: "Sé", State: "SP",
		Latitude: ptr(-23.550519123456), Longitude: ptr(-46.633309),
	}}
	secondary := &fakeLookup{}
	r := newTestResolver(primary, secondary, &fakeGeocoder{}, &sleepRecorder{})

	addr, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "01001-000"})
	require.True(t, ok)
	assert.Equal(t, -23.55051912, addr.Latitude)
	assert.Equal(t, -46.633309, addr.Longitude)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "Sé", addr.Neighborhood)
	assert.Equal(t, "SP", addr.State)
	assert.Equal(t, "primary", addr.Source)
	assert.Zero(t, secondary.calls)
}

func TestResolve_FallbackNarrowsQueries(t *testing.T) {
	primary := &fakeLookup{err: errors.New("timeout")}
	secondary := &fakeLookup{rec: &PostalRecord{City: "Campinas", Neighborhood: "Centro", State: "SP", Street: "Rua X"}}
	geocoder := &fakeGeocoder{results: map[int]*GeocodingResult{
		3: {Latitude: -22.9, Longitude: -47.06},
	}}
	sleeps := &sleepRecorder{}
	r := newTestResolver(primary, secondary, geocoder, sleeps)

	addr, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "13010000", Street: "Rua Barão", Number: "10"})
	require.True(t, ok)
	assert.Equal(t, []string{
		"Rua Barão, 10, Campinas - SP, Brasil",
		"Rua Barão, Campinas - SP, Brasil",
		"Campinas - SP, Brasil",
	}, geocoder.queries)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeps.calls)
	assert.Equal(t, -22.9, addr.Latitude)
	assert.Equal(t, "Campinas", addr.City)
	assert.Equal(t, "geocoder", addr.Source)
}

func TestResolve_FallbackStopsAtFirstHit(t *testing.T) {
	primary := &fakeLookup{rec: &PostalRecord{City: "Campinas"}} // без координат
	secondary := &fakeLookup{rec: &PostalRecord{City: "Campinas", State: "SP", Street: "Rua Y"}}
	geocoder := &fakeGeocoder{
		errs:    map[int]error{1: errors.New("boom")},
		results: map[int]*GeocodingResult{2: {Latitude: 1, Longitude: 2}},
	}
	sleeps := &sleepRecorder{}
	r := newTestResolver(primary, secondary, geocoder, sleeps)

	_, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "13010000", Number: "5"})
	require.True(t, ok)
	assert.Len(t, geocoder.queries, 2)
	assert.Equal(t, "Rua Y, 5, Campinas - SP, Brasil", geocoder.queries[0])
	assert.Len(t, sleeps.calls, 1)
}

func TestResolve_AllStrategiesFail(t *testing.T) {
	primary := &fakeLookup{err: errors.New("down")}
	secondary := &fakeLookup{rec: &PostalRecord{City: "Campinas", State: "SP"}}
	geocoder := &fakeGeocoder{}
	r := newTestResolver(primary, secondary, geocoder, &sleepRecorder{})

	addr, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "13010000"})
	assert.False(t, ok)
	assert.Equal(t, Address{}, addr)
	assert.Equal(t, []string{"Campinas - SP, Brasil"}, geocoder.queries)
}

func TestResolve_SecondaryFailure(t *testing.T) {
	primary := &fakeLookup{err: errors.New("down")}
	secondary := &fakeLookup{err: ErrNotFound}
	geocoder := &fakeGeocoder{}
	r := newTestResolver(primary, secondary, geocoder, &sleepRecorder{})

	_, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "99999999"})
	assert.False(t, ok)
	assert.Empty(t, geocoder.queries)
}

func TestResolve_CancelledDuringBackoff(t *testing.T) {
	primary := &fakeLookup{err: errors.New("down")}
	secondary := &fakeLookup{rec: &PostalRecord{City: "A", State: "B", Street: "C"}}
	geocoder := &fakeGeocoder{}
	r := NewResolver(primary, secondary, geocoder, WithSleeper(func(context.Context, time.Duration) error {
		return context.Canceled
	}))

	_, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "13010000", Number: "1"})
	assert.False(t, ok)
	assert.Len(t, geocoder.queries, 1)
}

func TestNormalizePostalCode(t *testing.T) {
	cep, ok := NormalizePostalCode("01001-000")
	assert.True(t, ok)
	assert.Equal(t, "01001000", cep)

	_, ok = NormalizePostalCode("1234567")
	assert.False(t, ok)
}
