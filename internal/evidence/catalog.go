// Package evidence gathers market pricing evidence for an identified
// item: category-selected sources fanned out with bulkhead isolation,
// blended prices, confidence scoring, and influence classification.
package evidence

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/flipscan/appraise/internal/model"
)

// Catalog maps item categories to market-source IDs and holds the
// blend weight and confidence tables. Construct once, pass by
// reference into the aggregator; no global registries.
type Catalog struct {
	Categories   map[string][]string          `yaml:"categories"`
	Default      []string                     `yaml:"default"`
	BlendWeights map[model.SourceType]float64 `yaml:"blend_weights"`
	Scoring      ScoringConfig                `yaml:"scoring"`
	MaxSources   int                          `yaml:"max_sources"`
}

// ScoringConfig holds the evidence confidence constants.
type ScoringConfig struct {
	Base             float64 `yaml:"base"`
	PerExtraSource   float64 `yaml:"per_extra_source"`
	MaxExtraSources  int     `yaml:"max_extra_sources"`
	AuthorityBonus   float64 `yaml:"authority_bonus"`
	MarketplaceBonus float64 `yaml:"marketplace_bonus"`
	RetailBonus      float64 `yaml:"retail_bonus"`
	Cap              float64 `yaml:"cap"`
}

// DefaultCatalog returns the built-in category mapping and weight
// tables. Blend weight priors: authority > live retail > marketplace
// aggregate > catalog reference.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: map[string][]string{
			"trading cards": {"psacard", "ebay", "pricecharting"},
			"coins":         {"psacard", "ebay"},
			"video games":   {"pricecharting", "ebay", "keepa"},
			"books":         {"ebay", "keepa", "upcitemdb"},
			"electronics":   {"ebay", "keepa", "upcitemdb"},
			"toys":          {"ebay", "keepa", "upcitemdb"},
			"collectibles":  {"psacard", "ebay", "keepa"},
			"jewelry":       {"ebay"},
		},
		Default: []string{"ebay", "keepa"},
		BlendWeights: map[model.SourceType]float64{
			model.SourceTypeAuthority:   1.5,
			model.SourceTypeRetail:      1.3,
			model.SourceTypeMarketplace: 1.15,
			model.SourceTypeCatalog:     1.0,
		},
		Scoring: ScoringConfig{
			Base:             0.5,
			PerExtraSource:   0.1,
			MaxExtraSources:  3,
			AuthorityBonus:   0.15,
			MarketplaceBonus: 0.10,
			RetailBonus:      0.08,
			Cap:              0.98,
		},
		MaxSources: 4,
	}
}

// LoadCatalog reads a catalog from a YAML file, filling gaps from the
// defaults.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evidence: read catalog %s", path)
	}

	cat := DefaultCatalog()
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, eris.Wrap(err, "evidence: parse catalog")
	}
	if cat.MaxSources <= 0 {
		cat.MaxSources = DefaultCatalog().MaxSources
	}
	return cat, nil
}

// SourcesForCategory resolves the source-ID list for a category,
// matching case-insensitively and falling back to the default list.
func (c *Catalog) SourcesForCategory(category string) []string {
	key := strings.ToLower(strings.TrimSpace(category))
	if key == "" {
		return c.Default
	}
	if ids, ok := c.Categories[key]; ok {
		return ids
	}
	// Loose containment so "pokemon trading cards" still maps.
	for name, ids := range c.Categories {
		if strings.Contains(key, name) {
			return ids
		}
	}
	return c.Default
}

// BlendWeight returns the prior weight for a source type.
func (c *Catalog) BlendWeight(t model.SourceType) float64 {
	if w, ok := c.BlendWeights[t]; ok && w > 0 {
		return w
	}
	return 1.0
}
