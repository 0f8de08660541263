// Package cost attributes per-run API spend across the AI providers.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic  map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     map[string]ModelRate `yaml:"openai" mapstructure:"openai"`
	Gemini     map[string]ModelRate `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityRate       `yaml:"perplexity" mapstructure:"perplexity"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PerplexityRate holds Perplexity pricing. Sonar queries price per
// request, not per token.
type PerplexityRate struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

func tokenCost(rates map[string]ModelRate, model string, input, output int64) float64 {
	rate, ok := rates[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Claude computes the cost for a Claude API call.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	return tokenCost(c.rates.Anthropic, model, input, output)
}

// GPT computes the cost for an OpenAI chat completion.
func (c *Calculator) GPT(model string, input, output int64) float64 {
	return tokenCost(c.rates.OpenAI, model, input, output)
}

// Gemini computes the cost for a Gemini generateContent call.
func (c *Calculator) Gemini(model string, input, output int64) float64 {
	return tokenCost(c.rates.Gemini, model, input, output)
}

// PerplexityQuery returns the flat cost per Perplexity query.
func (c *Calculator) PerplexityQuery() float64 {
	return c.rates.Perplexity.PerQuery
}

// Run totals the spend for one appraisal's provider calls.
func (c *Calculator) Run(calls []Call) float64 {
	var total float64
	for _, call := range calls {
		switch call.Provider {
		case "claude":
			total += c.Claude(call.Model, call.InputTokens, call.OutputTokens)
		case "gpt":
			total += c.GPT(call.Model, call.InputTokens, call.OutputTokens)
		case "gemini":
			total += c.Gemini(call.Model, call.InputTokens, call.OutputTokens)
		case "perplexity":
			total += c.PerplexityQuery()
		}
	}
	return total
}

// Call is one provider invocation's usage.
type Call struct {
	Provider     string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		OpenAI: map[string]ModelRate{
			"gpt-4o":      {Input: 2.50, Output: 10.00},
			"gpt-4o-mini": {Input: 0.15, Output: 0.60},
		},
		Gemini: map[string]ModelRate{
			"gemini-2.0-flash": {Input: 0.10, Output: 0.40},
			"gemini-1.5-pro":   {Input: 1.25, Output: 5.00},
		},
		Perplexity: PerplexityRate{PerQuery: 0.005},
	}
}
