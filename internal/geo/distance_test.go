package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDistance_SameAndSymmetric(t *testing.T) {
	points := []Point{
		{Lat: -23.55, Lon: -46.63},
		{Lat: -22.9068, Lon: -43.1729},
		{Lat: 0, Lon: 0},
		{Lat: 51.5, Lon: -0.12},
		{Lat: -33.86, Lon: 151.2},
	}
	for _, a := range points {
		assert.Equal(t, 0.0, Distance(a, a))
		for _, b := range points {
			assert.Equal(t, Distance(a, b), Distance(b, a), "%v <-> %v", a, b)
		}
	}
}

func TestDistance_KnownPair(t *testing.T) {
	saoPaulo := Point{Lat: -23.55, Lon: -46.63}
	rio := Point{Lat: -22.9068, Lon: -43.1729}

	d := Distance(saoPaulo, rio)
	assert.Greater(t, d, 350.0)
	assert.Less(t, d, 370.0)
	// два знака после запятой
	assert.Equal(t, d, math.Round(d*100)/100)
}

func TestDistanceBetween_Missing(t *testing.T) {
	_, ok := DistanceBetween(nil, ptr(1), ptr(1), ptr(1))
	assert.False(t, ok)
	_, ok = DistanceBetween(ptr(1), ptr(1), ptr(math.NaN()), ptr(1))
	assert.False(t, ok)

	d, ok := DistanceBetween(ptr(1), ptr(1), ptr(1), ptr(1))
	require.True(t, ok)
	assert.Equal(t, 0.0, d)
}

func TestParseCoordinate(t *testing.T) {
	v, ok := ParseCoordinate(" -23.55 ")
	require.True(t, ok)
	assert.Equal(t, -23.55, *v)

	for _, raw := range []string{"", "abc", "NaN", "Inf"} {
		_, ok := ParseCoordinate(raw)
		assert.False(t, ok, raw)
	}
}

func TestSortByDistance_MissingLast(t *testing.T) {
	type provider struct {
		name     string
		lat, lon *float64
	}
	ref := Point{Lat: -23.55, Lon: -46.63}
	items := []provider{
		{name: "no-coords"},
		{name: "far", lat: ptr(-22.9), lon: ptr(-43.17)},
		{name: "near", lat: ptr(-23.56), lon: ptr(-46.64)},
		{name: "half", lat: ptr(-23.0)},
	}

	ranked := Rank(items, &ref, func(p provider) (*float64, *float64) { return p.lat, p.lon })
	SortByDistance(ranked)

	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Item.name)
	}
	assert.Equal(t, []string{"near", "far", "no-coords", "half"}, names)
	assert.Nil(t, ranked[2].Distance)
	assert.Nil(t, ranked[3].Distance)
}

func TestRank_NoReference(t *testing.T) {
	ranked := Rank([]int{1, 2}, nil, func(int) (*float64, *float64) { return ptr(1), ptr(1) })
	require.Len(t, ranked, 2)
	assert.Nil(t, ranked[0].Distance)
}
