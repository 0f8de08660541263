package pricecharting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/product", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("t"))
		assert.Equal(t, "pokemon red", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "6910",
			"product-name": "Pokemon Red",
			"console-name": "Gameboy",
			"loose-price": 3500,
			"cib-price": 12000,
			"new-price": 45000,
			"status": "success"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	p, err := client.LookupProduct(context.Background(), "pokemon red")
	require.NoError(t, err)

	assert.Equal(t, "Pokemon Red", p.ProductName)
	assert.Equal(t, "Gameboy", p.ConsoleName)

	loose, ok := PriceUSD(p.LoosePrice)
	require.True(t, ok)
	assert.Equal(t, 35.0, loose)
}

func TestLookupProduct_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "error", "error-message": "no results found"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.LookupProduct(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results found")
}

func TestLookupProduct_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`invalid token`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.LookupProduct(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPriceUSD(t *testing.T) {
	t.Parallel()

	v, ok := PriceUSD(3500)
	require.True(t, ok)
	assert.Equal(t, 35.0, v)

	_, ok = PriceUSD(0)
	assert.False(t, ok)
	_, ok = PriceUSD(-100)
	assert.False(t, ok)
}
