// Package pipeline chains the three appraisal stages: identify the
// item from images, gather market evidence for it, then collect
// reasoning votes into a consensus. Stages run strictly in order; each
// stage degrades internally rather than failing the run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flipscan/appraise/internal/cost"
	"github.com/flipscan/appraise/internal/evidence"
	"github.com/flipscan/appraise/internal/identify"
	"github.com/flipscan/appraise/internal/marketdata"
	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/reason"
)

// Recorder persists finished appraisals. Persistence failures are
// logged and swallowed; the caller still gets the result.
type Recorder interface {
	SaveAppraisal(ctx context.Context, res *model.AnalysisResult) error
}

// Pipeline owns the three stages and the optional history recorder.
type Pipeline struct {
	identify *identify.Stage
	evidence *evidence.Aggregator
	reason   *reason.Stage
	recorder Recorder
	costs    *cost.Calculator
}

// New wires the stages together. recorder may be nil.
func New(id *identify.Stage, ev *evidence.Aggregator, rs *reason.Stage, recorder Recorder) *Pipeline {
	return &Pipeline{identify: id, evidence: ev, reason: rs, recorder: recorder}
}

// WithCosts enables per-run spend logging with the given calculator.
func (p *Pipeline) WithCosts(c *cost.Calculator) *Pipeline {
	p.costs = c
	return p
}

// Analyze runs one item through the full pipeline.
func (p *Pipeline) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	if len(req.Images) == 0 && req.Hint == "" {
		return nil, eris.Wrap(model.ErrNoInput, "pipeline: request has no images and no hint")
	}

	start := time.Now()
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting analysis",
		zap.Int("images", len(req.Images)),
		zap.String("hint", req.Hint),
	)

	identity, err := p.identify.Run(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: identify stage")
	}

	fctx := marketdata.FetchContext{
		Category:          identity.Category,
		Identifiers:       identity.Identifiers,
		AdditionalContext: req.AdditionalContext,
	}
	ev, err := p.evidence.Gather(ctx, identity.ItemName, identity.Category, fctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: evidence stage")
	}

	rr, err := p.reason.Run(ctx, identity, ev, req)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: reason stage")
	}

	result := &model.AnalysisResult{
		ID:               runID,
		ItemName:         identity.ItemName,
		Category:         identity.Category,
		Condition:        identity.Condition,
		Identifiers:      identity.Identifiers,
		Votes:            rr.Votes,
		Consensus:        rr.Consensus,
		MarketAssessment: rr.MarketAssessment,
		EvidenceSources:  ev.Sources,
		BlendedPrice:     ev.BlendedPrice,
		Usage:            append(append([]model.ProviderUsage(nil), identity.Usage...), rr.Usage...),
		StageTimings: model.StageTimings{
			IdentifyMs: identity.StageTimeMs,
			EvidenceMs: ev.StageTimeMs,
			ReasonMs:   rr.StageTimeMs,
			TotalMs:    time.Since(start).Milliseconds(),
		},
	}

	if p.costs != nil {
		log.Info("pipeline: provider spend",
			zap.Float64("identify_usd", p.costs.Run(toCalls(identity.Usage))),
			zap.Float64("reason_usd", p.costs.Run(toCalls(rr.Usage))),
		)
	}

	if p.recorder != nil {
		if err := p.recorder.SaveAppraisal(ctx, result); err != nil {
			log.Warn("pipeline: failed to record appraisal", zap.Error(err))
		}
	}

	log.Info("pipeline: analysis complete",
		zap.String("item", result.ItemName),
		zap.String("decision", string(result.Consensus.Decision)),
		zap.Float64("value", result.Consensus.EstimatedValue),
		zap.Float64("confidence", result.Consensus.Confidence),
		zap.Int64("total_ms", result.StageTimings.TotalMs),
	)
	return result, nil
}

func toCalls(usage []model.ProviderUsage) []cost.Call {
	calls := make([]cost.Call, len(usage))
	for i, u := range usage {
		calls[i] = cost.Call{
			Provider:     u.Provider,
			Model:        u.Model,
			InputTokens:  u.InputTokens,
			OutputTokens: u.OutputTokens,
		}
	}
	return calls
}
