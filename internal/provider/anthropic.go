package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/vote"
	"github.com/flipscan/appraise/pkg/anthropic"
)

// defaultSelfConfidence stands in when a payload carries no confidence
// of its own; Normalize overrides it with the payload value when present.
const defaultSelfConfidence = 0.7

// Anthropic adapts the Claude messages API. Vision and reasoning capable.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic wraps an anthropic client as a pipeline provider.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

func (a *Anthropic) ID() string          { return "claude" }
func (a *Anthropic) Family() vote.Family { return vote.FamilyAnthropic }
func (a *Anthropic) Vision() bool        { return true }
func (a *Anthropic) Reasoning() bool     { return true }

func (a *Anthropic) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	images := make([]anthropic.Image, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, anthropic.Image{
			URL:       img.URL,
			Base64:    img.Base64,
			MediaType: img.MediaType,
		})
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:  a.model,
		Prompt: req.Prompt,
		Images: images,
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: claude analyze")
	}
	if resp.Text == "" {
		return nil, eris.Wrap(model.ErrMalformedResponse, "provider: claude returned empty content")
	}

	return &AnalyzeResponse{
		Text:         resp.Text,
		Confidence:   defaultSelfConfidence,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
