package keepa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "1", r.URL.Query().Get("domain"))
		assert.Equal(t, "product", r.URL.Query().Get("type"))
		assert.Equal(t, "sony walkman", r.URL.Query().Get("term"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"products": [
				{"asin": "B000001", "title": "Sony Walkman", "buyBoxPrice": 7999, "listPrice": 9999},
				{"asin": "B000002", "title": "Walkman Case", "buyBoxPrice": -1, "listPrice": -1}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), "sony walkman")
	require.NoError(t, err)

	require.Len(t, resp.Products, 2)
	usd, ok := resp.Products[0].BuyBoxUSD()
	require.True(t, ok)
	assert.Equal(t, 79.99, usd)

	_, ok = resp.Products[1].BuyBoxUSD()
	assert.False(t, ok)
	_, ok = resp.Products[1].ListUSD()
	assert.False(t, ok)
}

func TestSearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"no tokens left"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestSearch_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestPriceConversions(t *testing.T) {
	t.Parallel()
	p := Product{BuyBoxPrice: 1250, ListPrice: 0}

	usd, ok := p.BuyBoxUSD()
	require.True(t, ok)
	assert.Equal(t, 12.50, usd)

	_, ok = p.ListUSD()
	assert.False(t, ok)
}
