package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// NominatimClient — геокодер OpenStreetMap.
// Политика использования — не больше 1 запроса в секунду на приложение, поэтому
// лимитер общий для всех запросов процесса.
type NominatimClient struct {
	http    *resty.Client
	limiter *rate.Limiter
}

func NewNominatimClient(baseURL, userAgent string, timeout time.Duration, rps float64) *NominatimClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &NominatimClient{
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

type nominatimPlace struct {
	Lat         flexFloat `json:"lat"`
	Lon         flexFloat `json:"lon"`
	DisplayName string    `json:"display_name"`
}

func (c *NominatimClient) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
			"limit":  "1",
		}).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode())
	}

	var places []nominatimPlace
	if err := json.Unmarshal(resp.Body(), &places); err != nil {
		return nil, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(places) == 0 || places[0].Lat.Value == nil || places[0].Lon.Value == nil {
		return nil, nil
	}

	return &GeocodingResult{
		Latitude:    *places[0].Lat.Value,
		Longitude:   *places[0].Lon.Value,
		DisplayName: places[0].DisplayName,
		Provider:    "nominatim",
	}, nil
}
