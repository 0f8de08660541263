// Package provider defines the AI provider boundary: a uniform analyze
// call over heterogeneous vendors, plus a registry the stages fan out
// against. The caller always owns the timeout.
package provider

import (
	"context"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/vote"
)

// AnalyzeRequest carries one prompt plus optional item images.
type AnalyzeRequest struct {
	Images []model.ImageRef
	Prompt string
}

// AnalyzeResponse is a provider's raw reply with self-reported confidence.
type AnalyzeResponse struct {
	Text         string
	Confidence   float64
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Provider is one vision- and/or reasoning-capable AI backend.
type Provider interface {
	ID() string
	Family() vote.Family
	Vision() bool
	Reasoning() bool
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)
}

// Registry holds the configured providers in registration order.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry from the given providers.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Register appends a provider.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Vision returns providers that accept images.
func (r *Registry) Vision() []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.Vision() {
			out = append(out, p)
		}
	}
	return out
}

// Reasoning returns providers usable for valuation reasoning.
func (r *Registry) Reasoning() []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.Reasoning() {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.providers) }
