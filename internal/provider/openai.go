package provider

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/vote"
	"github.com/flipscan/appraise/pkg/openai"
)

// OpenAI adapts the chat completions API. Vision and reasoning capable.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI wraps an openai client as a pipeline provider.
func NewOpenAI(client openai.Client, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

func (o *OpenAI) ID() string          { return "gpt" }
func (o *OpenAI) Family() vote.Family { return vote.FamilyOpenAI }
func (o *OpenAI) Vision() bool        { return true }
func (o *OpenAI) Reasoning() bool     { return true }

func (o *OpenAI) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	parts := make([]openai.ContentPart, 0, len(req.Images)+1)
	parts = append(parts, openai.ContentPart{Type: "text", Text: req.Prompt})
	for _, img := range req.Images {
		url := img.URL
		if img.Base64 != "" {
			url = fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Base64)
		}
		parts = append(parts, openai.ContentPart{
			Type:     "image_url",
			ImageURL: &openai.ImageURL{URL: url},
		})
	}

	resp, err := o.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: []openai.Message{{Role: "user", Content: parts}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: gpt analyze")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, eris.Wrap(model.ErrMalformedResponse, "provider: gpt returned no choices")
	}

	return &AnalyzeResponse{
		Text:         resp.Choices[0].Message.Content,
		Confidence:   defaultSelfConfidence,
		Model:        o.model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
