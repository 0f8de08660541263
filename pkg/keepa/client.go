// Package keepa wraps the Keepa product API for live Amazon pricing.
package keepa

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.keepa.com"

// Client looks up current retail prices by search term or product code.
type Client interface {
	Search(ctx context.Context, term string) (*SearchResponse, error)
}

// SearchResponse holds matched products.
type SearchResponse struct {
	Products []Product `json:"products"`
}

// Product is one Amazon product with its current price snapshot.
// Keepa reports prices in cents; BuyBoxPrice and ListPrice are -1 when
// unavailable.
type Product struct {
	ASIN        string `json:"asin"`
	Title       string `json:"title"`
	BuyBoxPrice int    `json:"buyBoxPrice"`
	ListPrice   int    `json:"listPrice"`
}

// BuyBoxUSD converts the cent-denominated buy box price to dollars.
func (p Product) BuyBoxUSD() (float64, bool) {
	if p.BuyBoxPrice <= 0 {
		return 0, false
	}
	return float64(p.BuyBoxPrice) / 100, true
}

// ListUSD converts the cent-denominated list price to dollars.
func (p Product) ListUSD() (float64, bool) {
	if p.ListPrice <= 0 {
		return 0, false
	}
	return float64(p.ListPrice) / 100, true
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

// NewClient creates a Keepa API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, term string) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("domain", "1") // amazon.com
	q.Set("type", "product")
	q.Set("term", term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "keepa: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "keepa: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "keepa: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("keepa: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "keepa: unmarshal response")
	}
	return &result, nil
}
