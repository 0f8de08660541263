package evidence

import "github.com/flipscan/appraise/internal/model"

// pricePoint is one source's contribution to the blend.
type pricePoint struct {
	price    float64
	weight   float64
	sourceID string
}

// blendPrices computes the weighted average of per-source prices. The
// reduction is commutative: input order never changes the result.
// Zero points yields nil; a single point passes through with the
// method naming its source.
func blendPrices(points []pricePoint) *model.BlendedPrice {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return &model.BlendedPrice{
			Value:      points[0].price,
			Confidence: 0.6,
			Method:     "single_source:" + points[0].sourceID,
		}
	}

	var sum, weight float64
	for _, p := range points {
		sum += p.price * p.weight
		weight += p.weight
	}
	if weight <= 0 {
		return nil
	}

	// More agreeing sources mean a steadier blend.
	confidence := 0.6 + 0.1*float64(len(points)-1)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return &model.BlendedPrice{
		Value:      sum / weight,
		Confidence: confidence,
		Method:     "weighted_average",
	}
}

// collectPricePoints pulls a representative price from each available
// source, weighted by its type prior.
func collectPricePoints(sources []model.MarketDataSource, catalog *Catalog) []pricePoint {
	var points []pricePoint
	for i := range sources {
		s := &sources[i]
		if !s.Available {
			continue
		}
		price, ok := s.BestPrice()
		if !ok {
			continue
		}
		points = append(points, pricePoint{
			price:    price,
			weight:   catalog.BlendWeight(s.Type),
			sourceID: s.Source,
		})
	}
	return points
}
