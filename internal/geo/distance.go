package geo

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// EarthRadiusKm — средний радиус Земли для формулы гаверсинусов.
const EarthRadiusKm = 6371.0

// Point — координаты в десятичных градусах.
type Point struct {
	Lat float64
	Lon float64
}

// NewPoint собирает точку из nullable-колонок; false, если чего-то не хватает.
func NewPoint(lat, lon *float64) (Point, bool) {
	if lat == nil || lon == nil || !finite(*lat) || !finite(*lon) {
		return Point{}, false
	}
	return Point{Lat: *lat, Lon: *lon}, true
}

// ParseCoordinate разбирает координату из строки (query-параметр и т.п.).
func ParseCoordinate(raw string) (*float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) {
		return nil, false
	}
	return &v, true
}

// Distance — расстояние по большому кругу в километрах, округлённое до 2 знаков.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon) - radians(a.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return Round(EarthRadiusKm*c, 2)
}

// DistanceBetween — Distance для nullable-координат; false, если какой-то нет.
func DistanceBetween(lat1, lon1, lat2, lon2 *float64) (float64, bool) {
	a, ok := NewPoint(lat1, lon1)
	if !ok {
		return 0, false
	}
	b, ok := NewPoint(lat2, lon2)
	if !ok {
		return 0, false
	}
	return Distance(a, b), true
}

// Round округляет до places знаков после запятой.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Ranked — элемент выдачи с (возможно отсутствующим) расстоянием.
type Ranked[T any] struct {
	Item     T
	Distance *float64
}

// Rank считает расстояния до ref. Без ref расстояния остаются пустыми.
func Rank[T any](items []T, ref *Point, coords func(T) (*float64, *float64)) []Ranked[T] {
	out := make([]Ranked[T], 0, len(items))
	for _, it := range items {
		r := Ranked[T]{Item: it}
		if ref != nil {
			lat, lon := coords(it)
			if p, ok := NewPoint(lat, lon); ok {
				d := Distance(*ref, p)
				r.Distance = &d
			}
		}
		out = append(out, r)
	}
	return out
}

// SortByDistance — по возрастанию расстояния, элементы без расстояния в конце.
// Сортировка стабильная: исходный порядок сохраняется при равенстве.
func SortByDistance[T any](items []Ranked[T]) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].Distance, items[j].Distance
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
