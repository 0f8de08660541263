package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flipscan/appraise/internal/model"
)

func TestClassifyInfluence(t *testing.T) {
	tests := []struct {
		name    string
		sources []model.MarketDataSource
		want    string
	}{
		{
			name: "authority marketplace and catalog",
			sources: []model.MarketDataSource{
				src("psacard", model.SourceTypeAuthority, true),
				src("ebay", model.SourceTypeMarketplace, true),
				src("upcitemdb", model.SourceTypeCatalog, true),
			},
			want: "comprehensive_market_coverage",
		},
		{
			name: "authority plus marketplace",
			sources: []model.MarketDataSource{
				src("psacard", model.SourceTypeAuthority, true),
				src("ebay", model.SourceTypeMarketplace, true),
			},
			want: "authority_plus_market",
		},
		{
			name: "authority plus retail",
			sources: []model.MarketDataSource{
				src("psacard", model.SourceTypeAuthority, true),
				src("keepa", model.SourceTypeRetail, true),
			},
			want: "authority_plus_retail",
		},
		{
			name: "marketplace plus retail",
			sources: []model.MarketDataSource{
				src("ebay", model.SourceTypeMarketplace, true),
				src("keepa", model.SourceTypeRetail, true),
			},
			want: "market_plus_retail",
		},
		{
			name: "authority alone",
			sources: []model.MarketDataSource{
				src("psacard", model.SourceTypeAuthority, true),
			},
			want: "authority_led",
		},
		{
			name: "marketplace alone",
			sources: []model.MarketDataSource{
				src("ebay", model.SourceTypeMarketplace, true),
			},
			want: "marketplace_driven",
		},
		{
			name: "retail alone",
			sources: []model.MarketDataSource{
				src("keepa", model.SourceTypeRetail, true),
			},
			want: "retail_driven",
		},
		{
			name: "catalog alone",
			sources: []model.MarketDataSource{
				src("upcitemdb", model.SourceTypeCatalog, true),
			},
			want: "catalog_reference",
		},
		{
			name: "unavailable sources do not count",
			sources: []model.MarketDataSource{
				src("psacard", model.SourceTypeAuthority, false),
				src("ebay", model.SourceTypeMarketplace, false),
			},
			want: "insufficient_data",
		},
		{
			name: "no sources",
			want: "insufficient_data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyInfluence(tt.sources))
		})
	}
}
