package marketdata

import (
	"sort"

	"github.com/flipscan/appraise/internal/model"
)

// analyzePrices computes summary statistics over observed prices.
// Returns nil when no positive prices were observed.
func analyzePrices(prices []float64) *model.PriceAnalysis {
	var clean []float64
	for _, p := range prices {
		if p > 0 {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	sort.Float64s(clean)

	var sum float64
	for _, p := range clean {
		sum += p
	}

	n := len(clean)
	median := clean[n/2]
	if n%2 == 0 {
		median = (clean[n/2-1] + clean[n/2]) / 2
	}

	return &model.PriceAnalysis{
		Lowest:  clean[0],
		Highest: clean[n-1],
		Average: sum / float64(n),
		Median:  median,
	}
}

// suggestFromAnalysis derives buy/sell price points from an analysis.
// Good deal sits under median, sell price under average to move fast.
func suggestFromAnalysis(pa *model.PriceAnalysis) *model.SuggestedPrices {
	if pa == nil {
		return nil
	}
	return &model.SuggestedPrices{
		GoodDeal:   pa.Median * 0.7,
		FairMarket: pa.Median,
		SellPrice:  pa.Average * 0.95,
	}
}
