// Package vote canonicalizes loosely-shaped provider payloads into
// typed votes and aggregates votes into a consensus.
package vote

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
)

// Family identifies a provider family for payload normalization. The
// same logical field arrives under different names per family, so each
// family gets one explicit adapter instead of ad hoc probing.
type Family string

const (
	FamilyAnthropic  Family = "anthropic"
	FamilyOpenAI     Family = "openai"
	FamilyGemini     Family = "gemini"
	FamilyPerplexity Family = "perplexity"
)

// adapter lists the field aliases a family is known to emit, in
// preference order. Generic aliases are appended as a last resort.
type adapter struct {
	nameKeys       []string
	categoryKeys   []string
	valueKeys      []string
	decisionKeys   []string
	confidenceKeys []string
	conditionKeys  []string
	reasoningKeys  []string
}

var genericAdapter = adapter{
	nameKeys:       []string{"item_name", "itemName", "name", "item", "title"},
	categoryKeys:   []string{"category", "item_category", "itemCategory", "type"},
	valueKeys:      []string{"estimated_value", "estimatedValue", "value", "price_estimate", "priceEstimate", "price"},
	decisionKeys:   []string{"decision", "recommendation", "action", "verdict"},
	confidenceKeys: []string{"confidence", "confidence_score", "confidenceScore", "certainty"},
	conditionKeys:  []string{"condition", "item_condition", "itemCondition"},
	reasoningKeys:  []string{"reasoning", "rationale", "explanation", "analysis"},
}

var familyAdapters = map[Family]adapter{
	FamilyAnthropic: {
		nameKeys:       []string{"itemName", "item_name"},
		valueKeys:      []string{"estimatedValue", "estimated_value"},
		decisionKeys:   []string{"decision"},
		categoryKeys:   []string{"category"},
		confidenceKeys: []string{"confidence"},
		conditionKeys:  []string{"condition"},
		reasoningKeys:  []string{"reasoning"},
	},
	FamilyOpenAI: {
		nameKeys:       []string{"item_name", "name"},
		valueKeys:      []string{"estimated_value", "value"},
		decisionKeys:   []string{"decision", "recommendation"},
		categoryKeys:   []string{"category"},
		confidenceKeys: []string{"confidence"},
		conditionKeys:  []string{"condition"},
		reasoningKeys:  []string{"reasoning"},
	},
	FamilyGemini: {
		nameKeys:       []string{"itemName", "item_name", "identified_item"},
		valueKeys:      []string{"estimatedValue", "estimated_value", "valueEstimate"},
		decisionKeys:   []string{"decision", "verdict"},
		categoryKeys:   []string{"category", "itemCategory"},
		confidenceKeys: []string{"confidence", "confidenceScore"},
		conditionKeys:  []string{"condition"},
		reasoningKeys:  []string{"reasoning", "analysis"},
	},
	FamilyPerplexity: {
		nameKeys:       []string{"item_name"},
		valueKeys:      []string{"estimated_value", "market_value"},
		decisionKeys:   []string{"decision", "recommendation"},
		categoryKeys:   []string{"category"},
		confidenceKeys: []string{"confidence"},
		conditionKeys:  []string{"condition"},
		reasoningKeys:  []string{"reasoning"},
	},
}

// Fields is the canonical view of a normalized payload.
type Fields struct {
	ItemName   string
	Category   string
	Value      float64
	Decision   model.Decision
	Confidence float64 // [0,1]; negative when the payload carried none
	Condition  string
	Reasoning  string
}

// Normalize parses a raw provider reply (bare JSON, fenced JSON, or
// JSON embedded in prose) and maps it to canonical fields using the
// family's adapter. The parsed payload is returned for downstream
// extraction (identifiers, market assessment).
func Normalize(family Family, raw string) (Fields, map[string]any, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return Fields{}, nil, eris.Wrap(model.ErrMalformedResponse, err.Error())
	}

	ad, ok := familyAdapters[family]
	if !ok {
		ad = genericAdapter
	}

	f := Fields{
		ItemName:   firstString(payload, ad.nameKeys, genericAdapter.nameKeys),
		Category:   firstString(payload, ad.categoryKeys, genericAdapter.categoryKeys),
		Condition:  firstString(payload, ad.conditionKeys, genericAdapter.conditionKeys),
		Reasoning:  firstString(payload, ad.reasoningKeys, genericAdapter.reasoningKeys),
		Confidence: -1,
	}
	if v, ok := firstNumber(payload, ad.valueKeys, genericAdapter.valueKeys); ok && v >= 0 {
		f.Value = v
	}
	if c, ok := firstNumber(payload, ad.confidenceKeys, genericAdapter.confidenceKeys); ok {
		f.Confidence = clampConfidence(c)
	}
	f.Decision = normalizeDecision(firstString(payload, ad.decisionKeys, genericAdapter.decisionKeys))

	return f, payload, nil
}

// extractJSON pulls the first JSON object out of a reply. Providers
// wrap JSON in markdown fences or prose more often than not.
func extractJSON(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, eris.New("empty payload")
	}

	// Fenced block first.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	// Narrow to the first balanced object.
	start := strings.Index(s, "{")
	if start < 0 {
		return nil, eris.New("no JSON object in payload")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					var payload map[string]any
					if err := json.Unmarshal([]byte(s[start:i+1]), &payload); err != nil {
						return nil, eris.Wrap(err, "parse payload JSON")
					}
					return payload, nil
				}
			}
		}
	}
	return nil, eris.New("unbalanced JSON object in payload")
}

func firstString(payload map[string]any, keys, fallback []string) string {
	for _, set := range [][]string{keys, fallback} {
		for _, k := range set {
			if v, ok := payload[k]; ok {
				if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

func firstNumber(payload map[string]any, keys, fallback []string) (float64, bool) {
	for _, set := range [][]string{keys, fallback} {
		for _, k := range set {
			v, ok := payload[k]
			if !ok {
				continue
			}
			switch n := v.(type) {
			case float64:
				return n, true
			case string:
				if f, ok := parsePrice(n); ok {
					return f, true
				}
			}
		}
	}
	return 0, false
}

// parsePrice handles numeric strings with currency noise ("$1,200.50").
func parsePrice(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal([]byte(cleaned), &f); err != nil {
		return 0, false
	}
	return f, true
}

func normalizeDecision(s string) model.Decision {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "PURCHASE", "STRONG BUY":
		return model.DecisionBuy
	case "SELL", "PASS", "FLIP":
		return model.DecisionSell
	default:
		return model.DecisionHold
	}
}

// clampConfidence maps percent-style confidences (e.g. 85) into [0,1].
func clampConfidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
