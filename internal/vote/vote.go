package vote

import (
	"time"

	"go.uber.org/zap"

	"github.com/flipscan/appraise/internal/model"
)

// DefaultWeight applies to providers absent from both weight tables.
const DefaultWeight = 1.0

// staticBaseWeights are provider priors, overridable per request via
// the dynamic weight map (e.g. from historical accuracy tracking).
var staticBaseWeights = map[string]float64{
	"claude":     1.2,
	"gpt":        1.15,
	"gemini":     1.0,
	"perplexity": 0.9,
}

// Context carries per-request inputs for vote creation.
type Context struct {
	// DynamicWeights overrides static base weights per provider ID.
	DynamicWeights map[string]float64

	// FallbackItemName/FallbackCategory fill votes whose payload omitted
	// identity fields (reasoning providers answer about a known item).
	FallbackItemName string
	FallbackCategory string
}

// ResolveWeight returns dynamic ?? static ?? default weight for a provider.
func ResolveWeight(providerID string, dynamic map[string]float64) float64 {
	if w, ok := dynamic[providerID]; ok && w > 0 {
		return w
	}
	if w, ok := staticBaseWeights[providerID]; ok && w > 0 {
		return w
	}
	return DefaultWeight
}

// Create canonicalizes one raw provider reply into a ModelVote. A
// payload that cannot be normalized yields an unsuccessful vote rather
// than an error; the caller simply gets no usable opinion.
func Create(providerID string, family Family, raw string, confidence float64, responseTime time.Duration, vctx Context) model.ModelVote {
	v := model.ModelVote{
		ProviderID:     providerID,
		Weight:         ResolveWeight(providerID, vctx.DynamicWeights),
		ResponseTimeMs: responseTime.Milliseconds(),
		Confidence:     clampConfidence(confidence),
		Decision:       model.DecisionHold,
		ItemName:       vctx.FallbackItemName,
		Category:       vctx.FallbackCategory,
	}

	fields, payload, err := Normalize(family, raw)
	if err != nil {
		zap.L().Debug("vote: payload normalization failed",
			zap.String("provider", providerID),
			zap.Error(err),
		)
		return v
	}

	v.RawResponse = payload
	v.Success = true
	if fields.ItemName != "" {
		v.ItemName = fields.ItemName
	}
	if fields.Category != "" {
		v.Category = fields.Category
	}
	v.EstimatedValue = fields.Value
	v.Decision = fields.Decision
	if fields.Confidence >= 0 {
		v.Confidence = fields.Confidence
	}
	return v
}
