package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ViaCEPClient — резервный провайдер: только текст адреса, без координат.
type ViaCEPClient struct {
	http *resty.Client
}

func NewViaCEPClient(baseURL string, timeout time.Duration) *ViaCEPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &ViaCEPClient{http: client}
}

type viaCEPResponse struct {
	Street       string          `json:"logradouro"`
	Neighborhood string          `json:"bairro"`
	City         string          `json:"localidade"`
	State        string          `json:"uf"`
	Erro         json.RawMessage `json:"erro"`
}

// notFound: ViaCEP отвечает 200 с {"erro": true} (или "true") для несуществующего CEP.
func (r viaCEPResponse) notFound() bool {
	switch string(r.Erro) {
	case "", "false", `"false"`, "null":
		return false
	}
	return true
}

func (c *ViaCEPClient) Lookup(ctx context.Context, postalCode string) (*PostalRecord, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("cep", postalCode).
		Get("/ws/{cep}/json/")
	if err != nil {
		return nil, fmt.Errorf("viacep request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("viacep: unexpected status %d", resp.StatusCode())
	}

	var body viaCEPResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("viacep decode: %w", err)
	}
	if body.notFound() {
		return nil, ErrNotFound
	}

	return &PostalRecord{
		Street:       body.Street,
		City:         body.City,
		Neighborhood: body.Neighborhood,
		State:        body.State,
	}, nil
}
