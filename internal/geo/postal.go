package geo

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound — внешний сервис ответил, но данных по запросу нет.
var ErrNotFound = errors.New("geo: no result")

// NormalizePostalCode оставляет только цифры; CEP валиден при длине 8.
func NormalizePostalCode(raw string) (string, bool) {
	digits := Digits(raw)
	return digits, len(digits) == 8
}

// Digits оставляет в строке только цифры.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostalRecord — ответ сервиса почтовых индексов. Координаты есть не у всех провайдеров.
type PostalRecord struct {
	Street       string
	City         string
	Neighborhood string
	State        string
	Latitude     *float64
	Longitude    *float64
}

// PostalLookup ищет адрес по нормализованному CEP.
type PostalLookup interface {
	Lookup(ctx context.Context, postalCode string) (*PostalRecord, error)
}

// GeocodingResult — лучший результат геокодера.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Provider    string
}

// Geocoder ищет координаты по свободному тексту. (nil, nil) — ничего не найдено.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*GeocodingResult, error)
}

// flexFloat принимает число как JSON-число или строку.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		f.Value = nil
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		f.Value = nil
		return nil
	}
	f.Value = &v
	return nil
}

// parseCoordinates понимает {"latitude": .., "longitude": ..} и [lon, lat].
func parseCoordinates(raw json.RawMessage) (lat, lon *float64) {
	if len(raw) == 0 {
		return nil, nil
	}

	var obj struct {
		Latitude  flexFloat `json:"latitude"`
		Longitude flexFloat `json:"longitude"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Latitude.Value, obj.Longitude.Value
	}

	var pair []flexFloat
	if err := json.Unmarshal(raw, &pair); err == nil && len(pair) >= 2 {
		return pair[1].Value, pair[0].Value
	}
	return nil, nil
}
