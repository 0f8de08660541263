// Package model defines the core types flowing through the appraisal pipeline.
package model

// Decision is the recommended action for an item.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// AnalysisQuality indicates whether a consensus was computed from real
// model votes or from market-data heuristics alone.
type AnalysisQuality string

const (
	QualityNormal   AnalysisQuality = "NORMAL"
	QualityDegraded AnalysisQuality = "DEGRADED"
)

// ImageRef is an opaque reference to an item image. Exactly one of URL
// or Base64 is set; MediaType accompanies Base64 data.
type ImageRef struct {
	URL       string `json:"url,omitempty"`
	Base64    string `json:"base64,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// AnalysisRequest is the pipeline input.
type AnalysisRequest struct {
	Images            []ImageRef `json:"images"`
	Hint              string     `json:"hint,omitempty"`
	CategoryHint      string     `json:"category_hint,omitempty"`
	AdditionalContext string     `json:"additional_context,omitempty"`
	DynamicWeights    map[string]float64
}

// ModelVote is one provider's structured opinion. Immutable once created.
type ModelVote struct {
	ProviderID     string         `json:"provider_id"`
	ItemName       string         `json:"item_name"`
	Category       string         `json:"category"`
	EstimatedValue float64        `json:"estimated_value"`
	Decision       Decision       `json:"decision"`
	Confidence     float64        `json:"confidence"` // [0,1]
	Weight         float64        `json:"weight"`     // > 0
	ResponseTimeMs int64          `json:"response_time_ms"`
	RawResponse    map[string]any `json:"raw_response,omitempty"`
	Success        bool           `json:"success"`
}

// Consensus is the aggregated value/decision derived from votes.
type Consensus struct {
	EstimatedValue  float64         `json:"estimated_value"`
	Decision        Decision        `json:"decision"`
	Confidence      float64         `json:"confidence"` // [0,100]
	Reasoning       string          `json:"reasoning"`
	AnalysisQuality AnalysisQuality `json:"analysis_quality"`
}

// Identifiers holds structured identifiers recovered during identification.
type Identifiers struct {
	VIN        string `json:"vin,omitempty"`
	ISBN       string `json:"isbn,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
	CertNumber string `json:"cert_number,omitempty"`
}

// Empty reports whether no identifier was extracted.
func (i Identifiers) Empty() bool {
	return i.VIN == "" && i.ISBN == "" && i.CardNumber == "" && i.CertNumber == ""
}

// ProviderUsage records one provider call's token consumption for
// cost attribution.
type ProviderUsage struct {
	Provider     string `json:"provider"`
	Model        string `json:"model,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// IdentifyResult is the Identify stage envelope. A hint fallback is a
// success with PrimaryProvider == "none", never an error.
type IdentifyResult struct {
	ItemName        string          `json:"item_name"`
	Category        string          `json:"category"`
	Condition       string          `json:"condition"`
	Identifiers     Identifiers     `json:"identifiers"`
	Description     string          `json:"description,omitempty"`
	PrimaryProvider string          `json:"primary_provider"`
	Votes           []ModelVote     `json:"votes"`
	Usage           []ProviderUsage `json:"usage,omitempty"`
	StageTimeMs     int64           `json:"stage_time_ms"`
}

// MarketAssessment is a best-effort read of market direction from the
// highest-weight reasoning vote.
type MarketAssessment struct {
	Trend       string `json:"trend,omitempty"`
	DemandLevel string `json:"demand_level,omitempty"`
}

// ReasonResult is the Reason stage envelope.
type ReasonResult struct {
	Votes            []ModelVote      `json:"votes"`
	Consensus        Consensus        `json:"consensus"`
	MarketAssessment MarketAssessment `json:"market_assessment"`
	Usage            []ProviderUsage  `json:"usage,omitempty"`
	StageTimeMs      int64            `json:"stage_time_ms"`
}

// BlendedPrice is the weighted blend of per-source prices.
type BlendedPrice struct {
	Value      float64 `json:"value"`      // >= 0
	Confidence float64 `json:"confidence"` // [0,1]
	Method     string  `json:"method"`
}

// StageTimings records wall-clock duration per stage.
type StageTimings struct {
	IdentifyMs int64 `json:"identify_ms"`
	EvidenceMs int64 `json:"evidence_ms"`
	ReasonMs   int64 `json:"reason_ms"`
	TotalMs    int64 `json:"total_ms"`
}

// AnalysisResult is the pipeline output bundle, handed downstream verbatim.
type AnalysisResult struct {
	ID               string             `json:"id"`
	ItemName         string             `json:"item_name"`
	Category         string             `json:"category"`
	Condition        string             `json:"condition"`
	Identifiers      Identifiers        `json:"identifiers"`
	Votes            []ModelVote        `json:"votes"`
	Consensus        Consensus          `json:"consensus"`
	MarketAssessment MarketAssessment   `json:"market_assessment"`
	EvidenceSources  []MarketDataSource `json:"evidence_sources"`
	BlendedPrice     *BlendedPrice      `json:"blended_price,omitempty"`
	Usage            []ProviderUsage    `json:"usage,omitempty"`
	StageTimings     StageTimings       `json:"stage_timings"`
}
