package marketdata

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/pkg/upcitemdb"
)

// BarcodeSourceID is the registry ID the aggregator force-injects when
// the caller context carries a barcode-shaped token.
const BarcodeSourceID = "upcitemdb"

// barcodePattern matches EAN-8, UPC-A, and EAN-13 tokens.
var barcodePattern = regexp.MustCompile(`\b(\d{13}|\d{12}|\d{8})\b`)

// ExtractBarcode returns the first barcode-shaped token in text.
func ExtractBarcode(text string) (string, bool) {
	m := barcodePattern.FindString(text)
	return m, m != ""
}

// UPCItemDBSource resolves barcodes to cataloged products with offers.
type UPCItemDBSource struct {
	client upcitemdb.Client
}

// NewUPCItemDBSource creates the barcode lookup source.
func NewUPCItemDBSource(client upcitemdb.Client) *UPCItemDBSource {
	return &UPCItemDBSource{client: client}
}

// ID implements Source.
func (s *UPCItemDBSource) ID() string { return BarcodeSourceID }

// Type implements Source.
func (s *UPCItemDBSource) Type() model.SourceType { return model.SourceTypeCatalog }

// Fetch implements Source. The barcode comes from the caller context;
// without one the item name is tried as a code, which the API rejects
// cleanly for non-numeric input.
func (s *UPCItemDBSource) Fetch(ctx context.Context, query string, fctx FetchContext) (*model.MarketDataSource, error) {
	code, ok := ExtractBarcode(fctx.AdditionalContext)
	if !ok {
		code, ok = ExtractBarcode(query)
	}
	if !ok {
		return nil, eris.Wrap(model.ErrSourceUnavailable, "upcitemdb source: no barcode in request")
	}

	resp, err := s.client.Lookup(ctx, code)
	if err != nil {
		return nil, eris.Wrap(err, "upcitemdb source: lookup")
	}
	if len(resp.Items) == 0 {
		return &model.MarketDataSource{
			Source:    s.ID(),
			Type:      s.Type(),
			Available: false,
			Query:     code,
			Error:     "barcode not found",
		}, nil
	}

	item := resp.Items[0]
	var prices []float64
	var listings []model.Listing
	for _, offer := range item.Offers {
		prices = append(prices, offer.Price)
		if len(listings) < maxSampleListings {
			listings = append(listings, model.Listing{
				Title: offer.Title,
				Price: offer.Price,
				URL:   offer.Link,
			})
		}
	}
	if len(prices) == 0 {
		prices = append(prices, item.LowestPrice, item.HighestPrice)
	}

	pa := analyzePrices(prices)
	return &model.MarketDataSource{
		Source:         s.ID(),
		Type:           s.Type(),
		Available:      pa != nil,
		Query:          code,
		TotalListings:  len(item.Offers),
		PriceAnalysis:  pa,
		SampleListings: listings,
		Metadata: map[string]any{
			"title":    item.Title,
			"brand":    item.Brand,
			"category": item.Category,
			"ean":      item.EAN,
		},
	}, nil
}
