package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/pkg/psacard"
)

// PSACardSource verifies grading certs and produces authority evidence.
// It only activates when the identify stage recovered a cert number.
type PSACardSource struct {
	client psacard.Client
}

// NewPSACardSource creates the PSA authority source.
func NewPSACardSource(client psacard.Client) *PSACardSource {
	return &PSACardSource{client: client}
}

// ID implements Source.
func (s *PSACardSource) ID() string { return "psacard" }

// Type implements Source.
func (s *PSACardSource) Type() model.SourceType { return model.SourceTypeAuthority }

// Fetch implements Source.
func (s *PSACardSource) Fetch(ctx context.Context, query string, fctx FetchContext) (*model.MarketDataSource, error) {
	cert := fctx.Identifiers.CertNumber
	if cert == "" {
		return nil, eris.Wrap(model.ErrSourceUnavailable, "psacard source: no cert number identified")
	}

	resp, err := s.client.GetCert(ctx, cert)
	if err != nil {
		return nil, eris.Wrap(err, "psacard source: get cert")
	}

	c := resp.PSACert
	verified := c.CertNumber != ""
	details := map[string]string{
		"name":     strings.TrimSpace(fmt.Sprintf("%s %s %s", c.Year, c.Brand, c.Subject)),
		"category": c.Category,
		"grade":    c.CardGrade,
	}

	confidence := 0.5
	if verified {
		confidence = 0.95
	}

	return &model.MarketDataSource{
		Source:    s.ID(),
		Type:      s.Type(),
		Available: verified,
		Query:     cert,
		AuthorityData: &model.AuthorityData{
			Source:      "psa",
			Verified:    verified,
			Confidence:  confidence,
			ItemDetails: details,
			ExternalURL: "https://www.psacard.com/cert/" + cert,
		},
		Metadata: map[string]any{
			"population": c.TotalPopulation,
			"spec_id":    c.SpecID,
		},
	}, nil
}
