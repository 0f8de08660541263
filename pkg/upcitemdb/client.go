// Package upcitemdb wraps the UPCitemdb barcode lookup API.
package upcitemdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.upcitemdb.com/prod/trial"

// Client resolves UPC/EAN barcodes to catalog items with offers.
type Client interface {
	Lookup(ctx context.Context, barcode string) (*LookupResponse, error)
}

// LookupResponse is the barcode lookup result.
type LookupResponse struct {
	Code  string `json:"code"`
	Total int    `json:"total"`
	Items []Item `json:"items"`
}

// Item is one cataloged product.
type Item struct {
	EAN          string  `json:"ean"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	LowestPrice  float64 `json:"lowest_recorded_price"`
	HighestPrice float64 `json:"highest_recorded_price"`
	Offers       []Offer `json:"offers"`
}

// Offer is one merchant offer for the item.
type Offer struct {
	Merchant string  `json:"merchant"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Link     string  `json:"link"`
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
	baseURL string
	http    *http.Client
}

// NewClient creates a UPCitemdb client (trial endpoints need no key).
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, barcode string) (*LookupResponse, error) {
	q := url.Values{}
	q.Set("upc", barcode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/lookup?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "upcitemdb: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "upcitemdb: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "upcitemdb: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("upcitemdb: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result LookupResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "upcitemdb: unmarshal response")
	}
	return &result, nil
}
