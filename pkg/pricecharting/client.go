// Package pricecharting wraps the PriceCharting API for catalog prices
// on video games, trading cards, and comics.
package pricecharting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.pricecharting.com/api"

// Client looks up catalog reference prices.
type Client interface {
	LookupProduct(ctx context.Context, query string) (*Product, error)
}

// Product is a catalog entry. Prices are in cents.
type Product struct {
	ID           string `json:"id"`
	ProductName  string `json:"product-name"`
	ConsoleName  string `json:"console-name"`
	LoosePrice   int    `json:"loose-price"`
	CIBPrice     int    `json:"cib-price"`
	NewPrice     int    `json:"new-price"`
	GradedPrice  int    `json:"graded-price"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error-message,omitempty"`
}

// PriceUSD converts a cent price to dollars; ok is false for zero.
func PriceUSD(cents int) (float64, bool) {
	if cents <= 0 {
		return 0, false
	}
	return float64(cents) / 100, true
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a PriceCharting API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) LookupProduct(ctx context.Context, query string) (*Product, error) {
	q := url.Values{}
	q.Set("t", c.apiKey)
	q.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pricecharting: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pricecharting: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pricecharting: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("pricecharting: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result Product
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pricecharting: unmarshal response")
	}
	if result.Status == "error" {
		return nil, eris.Errorf("pricecharting: %s", result.ErrorMessage)
	}
	return &result, nil
}
