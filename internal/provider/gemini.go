package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/vote"
	"github.com/flipscan/appraise/pkg/gemini"
)

// Gemini adapts the generateContent API. Vision and reasoning capable.
type Gemini struct {
	client gemini.Client
	model  string
}

// NewGemini wraps a gemini client as a pipeline provider.
func NewGemini(client gemini.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

func (g *Gemini) ID() string          { return "gemini" }
func (g *Gemini) Family() vote.Family { return vote.FamilyGemini }
func (g *Gemini) Vision() bool        { return true }
func (g *Gemini) Reasoning() bool     { return true }

func (g *Gemini) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	parts := make([]gemini.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		if img.Base64 != "" {
			parts = append(parts, gemini.Part{
				InlineData: &gemini.InlineData{MimeType: img.MediaType, Data: img.Base64},
			})
			continue
		}
		parts = append(parts, gemini.Part{
			FileData: &gemini.FileData{MimeType: img.MediaType, FileURI: img.URL},
		})
	}
	parts = append(parts, gemini.Part{Text: req.Prompt})

	resp, err := g.client.GenerateContent(ctx, gemini.GenerateContentRequest{
		Model:    g.model,
		Contents: []gemini.Content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: gemini analyze")
	}
	text := resp.Text()
	if text == "" {
		return nil, eris.Wrap(model.ErrMalformedResponse, "provider: gemini returned no candidates")
	}

	out := &AnalyzeResponse{Text: text, Confidence: defaultSelfConfidence, Model: g.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
