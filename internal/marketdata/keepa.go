package marketdata

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/pkg/keepa"
)

// KeepaSource surfaces current Amazon retail prices as live-retail
// evidence.
type KeepaSource struct {
	client keepa.Client
}

// NewKeepaSource creates the Keepa-backed retail source.
func NewKeepaSource(client keepa.Client) *KeepaSource {
	return &KeepaSource{client: client}
}

// ID implements Source.
func (s *KeepaSource) ID() string { return "keepa" }

// Type implements Source.
func (s *KeepaSource) Type() model.SourceType { return model.SourceTypeRetail }

// Fetch implements Source.
func (s *KeepaSource) Fetch(ctx context.Context, query string, _ FetchContext) (*model.MarketDataSource, error) {
	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "keepa source: search")
	}

	var prices []float64
	var listings []model.Listing
	for _, p := range resp.Products {
		price, ok := p.BuyBoxUSD()
		if !ok {
			price, ok = p.ListUSD()
		}
		if !ok {
			continue
		}
		prices = append(prices, price)
		if len(listings) < maxSampleListings {
			listings = append(listings, model.Listing{
				Title:    p.Title,
				Price:    price,
				Currency: "USD",
				URL:      "https://www.amazon.com/dp/" + p.ASIN,
			})
		}
	}

	pa := analyzePrices(prices)
	return &model.MarketDataSource{
		Source:         s.ID(),
		Type:           s.Type(),
		Available:      pa != nil,
		Query:          query,
		TotalListings:  len(prices),
		PriceAnalysis:  pa,
		SampleListings: listings,
	}, nil
}
