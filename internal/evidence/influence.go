package evidence

import "github.com/flipscan/appraise/internal/model"

// influenceRule maps a combination of present source types to a named
// market-influence tier. Rules are evaluated in order; first match wins.
type influenceRule struct {
	authority   bool
	marketplace bool
	retail      bool
	catalog     bool
	label       string
}

// influenceRules is the priority-ordered decision table. Broader
// coverage outranks narrower; the bottom row is the empty market.
var influenceRules = []influenceRule{
	{authority: true, marketplace: true, catalog: true, label: "comprehensive_market_coverage"},
	{authority: true, marketplace: true, label: "authority_plus_market"},
	{authority: true, retail: true, label: "authority_plus_retail"},
	{marketplace: true, retail: true, label: "market_plus_retail"},
	{authority: true, label: "authority_led"},
	{marketplace: true, label: "marketplace_driven"},
	{retail: true, label: "retail_driven"},
	{catalog: true, label: "catalog_reference"},
}

// classifyInfluence names the strongest evidence combination present.
func classifyInfluence(sources []model.MarketDataSource) string {
	present := map[model.SourceType]bool{}
	for i := range sources {
		if sources[i].Available {
			present[sources[i].Type] = true
		}
	}

	for _, r := range influenceRules {
		if r.authority && !present[model.SourceTypeAuthority] {
			continue
		}
		if r.marketplace && !present[model.SourceTypeMarketplace] {
			continue
		}
		if r.retail && !present[model.SourceTypeRetail] {
			continue
		}
		if r.catalog && !present[model.SourceTypeCatalog] {
			continue
		}
		return r.label
	}
	return "insufficient_data"
}
