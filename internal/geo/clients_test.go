package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBrasilAPIClient_ObjectCoordinates(t *testing.T) {
	srv := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cep/v2/01001000", r.URL.Path)
		_, _ = w.Write([]byte(`{"cep":"01001000","state":"SP","city":"São Paulo","neighborhood":"Sé",
			"street":"Praça da Sé","location":{"type":"Point","coordinates":{"longitude":"-46.6334","latitude":"-23.5505"}}}`))
	})

	rec, err := NewBrasilAPIClient(srv.URL, time.Second).Lookup(context.Background(), "01001000")
	require.NoError(t, err)
	require.NotNil(t, rec.Latitude)
	assert.Equal(t, -23.5505, *rec.Latitude)
	assert.Equal(t, -46.6334, *rec.Longitude)
	assert.Equal(t, "Sé", rec.Neighborhood)
}

func TestBrasilAPIClient_ArrayCoordinates(t *testing.T) {
	srv := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Campinas","state":"SP","location":{"coordinates":[-47.06, -22.9]}}`))
	})

	rec, err := NewBrasilAPIClient(srv.URL, time.Second).Lookup(context.Background(), "13010000")
	require.NoError(t, err)
	assert.Equal(t, -22.9, *rec.Latitude)
	assert.Equal(t, -47.06, *rec.Longitude)
}

func TestBrasilAPIClient_NoCoordinates(t *testing.T) {
	srv := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city":"Campinas","state":"SP","location":{"type":"Point","coordinates":{}}}`))
	})

	rec, err := NewBrasilAPIClient(srv.URL, time.Second).Lookup(context.Background(), "13010000")
	require.NoError(t, err)
	assert.Nil(t, rec.Latitude)
	assert.Nil(t, rec.Longitude)
}

func TestBrasilAPIClient_Statuses(t *testing.T) {
	status := http.StatusNotFound
	srv := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"x"}`))
	})
	c := NewBrasilAPIClient(srv.URL, time.Second)

	_, err := c.Lookup(context.Background(), "00000000")
	assert.True(t, errors.Is(err, ErrNotFound))

	status = http.StatusInternalServerError
	_, err = c.Lookup(context.Background(), "00000000")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestViaCEPClient(t *testing.T) {
	srv := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ws/13010000/json/":
			_, _ = w.Write([]byte(`{"logradouro":"Rua Barão","bairro":"Centro","localidade":"Campinas","uf":"SP"}`))
		case "/ws/99999999/json/":
			_, _ = w.Write([]byte(`{"erro": "true"}`))
		default:
			_, _ = w.Write([]byte(`{"erro": true}`))
		}
	})
	c := NewViaCEPClient(srv.URL, time.Second)

	rec, err := c.Lookup(context.Background(), "13010000")
	require.NoError(t, err)
	assert.Equal(t, "Campinas", rec.City)
	assert.Equal(t, "Rua Barão", rec.Street)
	assert.Nil(t, rec.Latitude)

	_, err = c.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Lookup(context.Background(), "11111111")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNominatimClient(t *testing.T) {
	srv := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") == "nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"-22.9","lon":"-47.06","display_name":"Campinas"}]`))
	})
	c := NewNominatimClient(srv.URL, "test-agent", time.Second, 0)

	res, err := c.Geocode(context.Background(), "Campinas - SP, Brasil")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, -22.9, res.Latitude)
	assert.Equal(t, -47.06, res.Longitude)
	assert.Equal(t, "nominatim", res.Provider)

	res, err = c.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestResolver_EndToEndWithHTTPFallback(t *testing.T) {
	primary := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	secondary := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"logradouro":"Rua Barão","bairro":"Centro","localidade":"Campinas","uf":"SP"}`))
	})
	geocoder := jsonServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"-22.905","lon":"-47.061"}]`))
	})

	r := NewResolver(
		NewBrasilAPIClient(primary.URL, time.Second),
		NewViaCEPClient(secondary.URL, time.Second),
		NewNominatimClient(geocoder.URL, "test", time.Second, 0),
		WithRetryDelay(0),
	)

	addr, ok := r.Resolve(context.Background(), AddressQuery{PostalCode: "13010-000", Number: "10"})
	require.True(t, ok)
	assert.Equal(t, -22.905, addr.Latitude)
	assert.Equal(t, -47.061, addr.Longitude)
	assert.Equal(t, "Centro", addr.Neighborhood)
}
