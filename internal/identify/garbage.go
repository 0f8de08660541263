package identify

import "strings"

// boilerplatePhrases are fallback strings providers emit when they have
// nothing. Matched case-insensitively after trimming.
var boilerplatePhrases = map[string]struct{}{
	"unidentified item":    {},
	"unidentified object":  {},
	"unknown item":         {},
	"unknown object":       {},
	"analysis unavailable": {},
	"analysis failed":      {},
	"unable to identify":   {},
	"no item detected":     {},
	"image analysis":       {},
	"item analysis":        {},
}

// aiBrandWords are AI vendor/model names. A name whose grammatical
// subject is a brand with no concrete product noun behind it is the
// model talking about itself, not an identification.
var aiBrandWords = map[string]struct{}{
	"gemini":     {},
	"claude":     {},
	"gpt":        {},
	"chatgpt":    {},
	"openai":     {},
	"anthropic":  {},
	"grok":       {},
	"llama":      {},
	"copilot":    {},
	"perplexity": {},
}

// brandFillerWords may follow a brand without making the name concrete
// ("Google Gemini Analysis", "Claude Vision Response").
var brandFillerWords = map[string]struct{}{
	"ai":       {},
	"model":    {},
	"vision":   {},
	"analysis": {},
	"response": {},
	"result":   {},
	"output":   {},
	"pro":      {},
	"flash":    {},
	"ultra":    {},
	"google":   {},
	"version":  {},
}

// IsGarbageName reports whether a provider-supplied item name is
// boilerplate rather than a genuine identification. Garbage names are
// treated as no-response; the identify race continues past them.
func IsGarbageName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 {
		return true
	}

	lower := strings.ToLower(trimmed)
	if _, ok := boilerplatePhrases[lower]; ok {
		return true
	}

	// "<Provider> Analysis"-shaped strings.
	if strings.HasSuffix(lower, " analysis") || lower == "analysis" {
		return true
	}

	// Brand-as-subject with nothing concrete after it. "Gemini" alone
	// or "Google Gemini Response" is garbage; "Google Pixel 7 Phone"
	// is not (pixel/7/phone are not brand filler).
	words := strings.Fields(lower)
	hasBrand := false
	allBrandish := true
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'()")
		if _, ok := aiBrandWords[w]; ok {
			hasBrand = true
			continue
		}
		if _, ok := brandFillerWords[w]; !ok {
			allBrandish = false
		}
	}
	return hasBrand && allBrandish
}
