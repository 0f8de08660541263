package evidence

import "github.com/flipscan/appraise/internal/model"

// scoreConfidence rates how much the gathered evidence can be trusted:
// a base for having anything at all, a per-source bump, and fixed
// bonuses for the evidence types that anchor a valuation.
func scoreConfidence(sources []model.MarketDataSource, cfg ScoringConfig) float64 {
	available := 0
	hasAuthority := false
	hasMarketplace := false
	hasRetail := false
	for i := range sources {
		s := &sources[i]
		if !s.Available {
			continue
		}
		available++
		switch s.Type {
		case model.SourceTypeAuthority:
			hasAuthority = true
		case model.SourceTypeMarketplace:
			hasMarketplace = true
		case model.SourceTypeRetail:
			hasRetail = true
		}
	}

	if available == 0 {
		return 0
	}

	extras := available - 1
	if extras > cfg.MaxExtraSources {
		extras = cfg.MaxExtraSources
	}

	conf := cfg.Base + float64(extras)*cfg.PerExtraSource
	if hasAuthority {
		conf += cfg.AuthorityBonus
	}
	if hasMarketplace {
		conf += cfg.MarketplaceBonus
	}
	if hasRetail {
		conf += cfg.RetailBonus
	}
	if conf > cfg.Cap {
		conf = cfg.Cap
	}
	return conf
}
