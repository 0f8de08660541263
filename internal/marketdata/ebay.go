package marketdata

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/pkg/ebay"
)

// maxSampleListings bounds the listings carried into the evidence text.
const maxSampleListings = 5

// EbaySource surfaces live eBay listings as marketplace evidence.
type EbaySource struct {
	client ebay.Client
	limit  int
}

// NewEbaySource creates the eBay source fetching up to limit listings.
func NewEbaySource(client ebay.Client, limit int) *EbaySource {
	if limit <= 0 {
		limit = 25
	}
	return &EbaySource{client: client, limit: limit}
}

// ID implements Source.
func (s *EbaySource) ID() string { return "ebay" }

// Type implements Source.
func (s *EbaySource) Type() model.SourceType { return model.SourceTypeMarketplace }

// Fetch implements Source.
func (s *EbaySource) Fetch(ctx context.Context, query string, _ FetchContext) (*model.MarketDataSource, error) {
	resp, err := s.client.SearchItems(ctx, query, s.limit)
	if err != nil {
		return nil, eris.Wrap(err, "ebay source: search")
	}

	prices := make([]float64, 0, len(resp.ItemSummaries))
	listings := make([]model.Listing, 0, maxSampleListings)
	for _, item := range resp.ItemSummaries {
		price := item.Price.Amount()
		prices = append(prices, price)
		if len(listings) < maxSampleListings {
			listings = append(listings, model.Listing{
				Title:     item.Title,
				Price:     price,
				Currency:  item.Price.Currency,
				Condition: item.Condition,
				URL:       item.ItemWebURL,
			})
		}
	}

	pa := analyzePrices(prices)
	return &model.MarketDataSource{
		Source:          s.ID(),
		Type:            s.Type(),
		Available:       pa != nil,
		Query:           query,
		TotalListings:   resp.Total,
		PriceAnalysis:   pa,
		SuggestedPrices: suggestFromAnalysis(pa),
		SampleListings:  listings,
	}, nil
}
