package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// BrasilAPIClient — основной провайдер: CEP v2 с координатами.
type BrasilAPIClient struct {
	http *resty.Client
}

func NewBrasilAPIClient(baseURL string, timeout time.Duration) *BrasilAPIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &BrasilAPIClient{http: client}
}

type brasilAPIResponse struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Location     struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"location"`
}

func (c *BrasilAPIClient) Lookup(ctx context.Context, postalCode string) (*PostalRecord, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("cep", postalCode).
		Get("/api/cep/v2/{cep}")
	if err != nil {
		return nil, fmt.Errorf("brasilapi request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("brasilapi: unexpected status %d", resp.StatusCode())
	}

	var body brasilAPIResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("brasilapi decode: %w", err)
	}

	lat, lon := parseCoordinates(body.Location.Coordinates)
	return &PostalRecord{
		Street:       body.Street,
		City:         body.City,
		Neighborhood: body.Neighborhood,
		State:        body.State,
		Latitude:     lat,
		Longitude:    lon,
	}, nil
}
