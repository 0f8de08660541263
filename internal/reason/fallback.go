package reason

import (
	"fmt"
	"sort"

	"github.com/flipscan/appraise/internal/model"
)

// fallbackValue picks a value from market evidence alone, in priority
// order: median across sources, then authority price, then the lowest
// observed price.
func fallbackValue(evidence *model.EvidenceSummary) (float64, string) {
	var medians []float64
	var lowest float64
	for i := range evidence.Sources {
		s := &evidence.Sources[i]
		if !s.Available || s.PriceAnalysis == nil {
			continue
		}
		if s.PriceAnalysis.Median > 0 {
			medians = append(medians, s.PriceAnalysis.Median)
		}
		if s.PriceAnalysis.Lowest > 0 && (lowest == 0 || s.PriceAnalysis.Lowest < lowest) {
			lowest = s.PriceAnalysis.Lowest
		}
	}

	if len(medians) > 0 {
		sort.Float64s(medians)
		m := medians[len(medians)/2]
		if len(medians)%2 == 0 {
			m = (medians[len(medians)/2-1] + medians[len(medians)/2]) / 2
		}
		return m, "market median"
	}

	if a := evidence.Authority; a != nil && a.PriceData != nil {
		if a.PriceData.Median > 0 {
			return a.PriceData.Median, "authority price"
		}
		if a.PriceData.Average > 0 {
			return a.PriceData.Average, "authority price"
		}
	}

	if lowest > 0 {
		return lowest, "lowest observed price"
	}
	return 0, "no price evidence"
}

// marketFallback computes a pure market-data consensus for when zero
// reasoning votes returned. Always DEGRADED, never an error.
func marketFallback(evidence *model.EvidenceSummary, buyThreshold float64) model.Consensus {
	value, basis := fallbackValue(evidence)

	decision := model.DecisionSell
	if value >= buyThreshold {
		decision = model.DecisionBuy
	}

	return model.Consensus{
		EstimatedValue:  value,
		Decision:        decision,
		Confidence:      evidence.MarketConfidence * 100,
		Reasoning:       fmt.Sprintf("no model votes returned; decision from %s ($%.2f)", basis, value),
		AnalysisQuality: model.QualityDegraded,
	}
}
