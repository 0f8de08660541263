package model

// SourceType classifies a market-data source by the kind of evidence it
// produces. Blend weights and influence classification key off it.
type SourceType string

const (
	SourceTypeAuthority   SourceType = "authority"   // verified catalog/certification
	SourceTypeRetail      SourceType = "retail"      // live retail pricing
	SourceTypeMarketplace SourceType = "marketplace" // broad listing aggregate
	SourceTypeCatalog     SourceType = "catalog"     // generic reference catalog
)

// PriceAnalysis summarizes observed prices from one source.
type PriceAnalysis struct {
	Lowest  float64 `json:"lowest"`
	Highest float64 `json:"highest"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// SuggestedPrices are source-computed price points.
type SuggestedPrices struct {
	GoodDeal   float64 `json:"good_deal"`
	FairMarket float64 `json:"fair_market"`
	SellPrice  float64 `json:"sell_price"`
}

// Listing is a single sample listing from a marketplace source.
type Listing struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency,omitempty"`
	Condition string  `json:"condition,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// AuthorityData is verified structured data from a certification or
// catalog authority. At most one authority backs an evidence summary.
type AuthorityData struct {
	Source      string            `json:"source"`
	Verified    bool              `json:"verified"`
	Confidence  float64           `json:"confidence"`
	ItemDetails map[string]string `json:"item_details,omitempty"`
	PriceData   *PriceAnalysis    `json:"price_data,omitempty"`
	ExternalURL string            `json:"external_url,omitempty"`
}

// MarketDataSource is the terminal result of one source call. Every
// call, success or failure, produces exactly one of these; failures
// are recorded in Error with Available=false, never propagated.
type MarketDataSource struct {
	Source          string           `json:"source"`
	Type            SourceType       `json:"type"`
	Available       bool             `json:"available"`
	Query           string           `json:"query"`
	TotalListings   int              `json:"total_listings"`
	PriceAnalysis   *PriceAnalysis   `json:"price_analysis,omitempty"`
	SuggestedPrices *SuggestedPrices `json:"suggested_prices,omitempty"`
	SampleListings  []Listing        `json:"sample_listings,omitempty"`
	AuthorityData   *AuthorityData   `json:"authority_data,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// BestPrice returns the most representative price from this source:
// median, falling back to average, then authority price data.
func (s *MarketDataSource) BestPrice() (float64, bool) {
	if s.PriceAnalysis != nil {
		if s.PriceAnalysis.Median > 0 {
			return s.PriceAnalysis.Median, true
		}
		if s.PriceAnalysis.Average > 0 {
			return s.PriceAnalysis.Average, true
		}
	}
	if s.AuthorityData != nil && s.AuthorityData.PriceData != nil {
		if p := s.AuthorityData.PriceData.Median; p > 0 {
			return p, true
		}
		if p := s.AuthorityData.PriceData.Average; p > 0 {
			return p, true
		}
	}
	return 0, false
}

// EvidenceSummary is the Evidence Aggregator output consumed by the
// Reason stage prompt and the final result bundle.
type EvidenceSummary struct {
	Text             string             `json:"text"`
	MarketConfidence float64            `json:"market_confidence"` // [0,1]
	Authority        *AuthorityData     `json:"authority,omitempty"`
	Sources          []MarketDataSource `json:"sources"`
	BlendedPrice     *BlendedPrice      `json:"blended_price,omitempty"`
	MarketInfluence  string             `json:"market_influence"`
	StageTimeMs      int64              `json:"stage_time_ms"`
}
