// Package psacard wraps the PSA public API for cert verification and
// auction price data.
package psacard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.psacard.com/publicapi"

// Client verifies grading certs and fetches auction prices realized.
type Client interface {
	GetCert(ctx context.Context, certNumber string) (*CertResponse, error)
}

// CertResponse is the cert lookup result.
type CertResponse struct {
	PSACert PSACert `json:"PSACert"`
}

// PSACert describes a graded item.
type PSACert struct {
	CertNumber      string `json:"CertNumber"`
	SpecID          int    `json:"SpecID"`
	Subject         string `json:"Subject"`
	Brand           string `json:"Brand"`
	Category        string `json:"Category"`
	CardGrade       string `json:"CardGrade"`
	Year            string `json:"Year"`
	CardNumber      string `json:"CardNumber"`
	TotalPopulation int    `json:"TotalPopulation"`
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
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a PSA API client with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GetCert(ctx context.Context, certNumber string) (*CertResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cert/GetByCertNumber/"+certNumber, nil)
	if err != nil {
		return nil, eris.Wrap(err, "psacard: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "psacard: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "psacard: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("psacard: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result CertResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "psacard: unmarshal response")
	}
	return &result, nil
}
