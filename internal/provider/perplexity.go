package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/vote"
	"github.com/flipscan/appraise/pkg/perplexity"
)

// Perplexity adapts the sonar chat API. Text only, so it sits out the
// identify race and contributes search-grounded reasoning votes.
type Perplexity struct {
	client perplexity.Client
	model  string
}

// NewPerplexity wraps a perplexity client as a pipeline provider.
func NewPerplexity(client perplexity.Client, model string) *Perplexity {
	return &Perplexity{client: client, model: model}
}

func (p *Perplexity) ID() string          { return "perplexity" }
func (p *Perplexity) Family() vote.Family { return vote.FamilyPerplexity }
func (p *Perplexity) Vision() bool        { return false }
func (p *Perplexity) Reasoning() bool     { return true }

func (p *Perplexity) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: p.model,
		Messages: []perplexity.Message{
			{Role: "user", Content: req.Prompt},
		},
		SearchRecencyFilter: "month",
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: perplexity analyze")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, eris.Wrap(model.ErrMalformedResponse, "provider: perplexity returned no choices")
	}

	return &AnalyzeResponse{
		Text:         resp.Choices[0].Message.Content,
		Confidence:   defaultSelfConfidence,
		Model:        p.model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
