package marketdata

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/pkg/pricecharting"
)

// PriceChartingSource surfaces catalog reference prices for games,
// cards, and comics.
type PriceChartingSource struct {
	client pricecharting.Client
}

// NewPriceChartingSource creates the PriceCharting-backed catalog source.
func NewPriceChartingSource(client pricecharting.Client) *PriceChartingSource {
	return &PriceChartingSource{client: client}
}

// ID implements Source.
func (s *PriceChartingSource) ID() string { return "pricecharting" }

// Type implements Source.
func (s *PriceChartingSource) Type() model.SourceType { return model.SourceTypeCatalog }

// Fetch implements Source.
func (s *PriceChartingSource) Fetch(ctx context.Context, query string, _ FetchContext) (*model.MarketDataSource, error) {
	product, err := s.client.LookupProduct(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "pricecharting source: lookup")
	}

	// Condition-tier catalog prices stand in for observed listings.
	var prices []float64
	for _, cents := range []int{product.LoosePrice, product.CIBPrice, product.NewPrice, product.GradedPrice} {
		if usd, ok := pricecharting.PriceUSD(cents); ok {
			prices = append(prices, usd)
		}
	}

	pa := analyzePrices(prices)
	return &model.MarketDataSource{
		Source:        s.ID(),
		Type:          s.Type(),
		Available:     pa != nil,
		Query:         query,
		TotalListings: len(prices),
		PriceAnalysis: pa,
		Metadata: map[string]any{
			"product_name": product.ProductName,
			"console_name": product.ConsoleName,
		},
	}, nil
}
