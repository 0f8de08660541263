// Package reason fans the evidence-embedded valuation prompt out to
// all reasoning providers and aggregates whatever votes return within
// the stage timeout. Unlike identify, this is collect-what-returns:
// the stage waits out its budget instead of stopping at the first reply.
package reason

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/provider"
	"github.com/flipscan/appraise/internal/vote"
)

// Defaults for the stage budget and the market-only decision split.
const (
	DefaultStageTimeout = 20 * time.Second

	// DefaultBuyThreshold splits the degraded fallback: items worth at
	// least this much are BUY, below it SELL.
	DefaultBuyThreshold = 25.0
)

// Options configures the reason stage.
type Options struct {
	StageTimeout     time.Duration
	ProviderTimeouts map[string]time.Duration
	BuyThreshold     float64
}

// Stage runs the reasoning fan-out.
type Stage struct {
	registry *provider.Registry
	opts     Options
}

// New creates a reason stage over the registry's reasoning providers.
func New(registry *provider.Registry, opts Options) *Stage {
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = DefaultStageTimeout
	}
	if opts.BuyThreshold <= 0 {
		opts.BuyThreshold = DefaultBuyThreshold
	}
	return &Stage{registry: registry, opts: opts}
}

// Run collects weighted votes and produces the final consensus. The
// canonical identity always comes from the identify stage; votes never
// rename the item. Zero votes falls back to market-data decisioning,
// never an error.
func (s *Stage) Run(ctx context.Context, identity *model.IdentifyResult, evidence *model.EvidenceSummary, req model.AnalysisRequest) (*model.ReasonResult, error) {
	start := time.Now()
	log := zap.L().With(zap.String("stage", "reason"), zap.String("item", identity.ItemName))

	providers := s.registry.Reasoning()
	if len(providers) == 0 {
		log.Warn("reason: no reasoning providers configured, using market fallback")
		return &model.ReasonResult{
			Consensus:   marketFallback(evidence, s.opts.BuyThreshold),
			StageTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	prompt := buildPrompt(identity, evidence)

	stageCtx, cancel := context.WithTimeout(ctx, s.opts.StageTimeout)
	defer cancel()

	results := make(chan outcome, len(providers))
	for _, p := range providers {
		go s.dispatch(stageCtx, p, prompt, identity, req, results)
	}

	// Harvest every vote that lands inside the budget. Stragglers
	// deliver into the buffer and are discarded with the stage context.
	var votes []model.ModelVote
	var usage []model.ProviderUsage
collect:
	for received := 0; received < len(providers); received++ {
		select {
		case <-stageCtx.Done():
			break collect
		case o := <-results:
			votes = append(votes, o.vote)
			if o.usage.Provider != "" {
				usage = append(usage, o.usage)
			}
		}
	}

	usable := 0
	for _, v := range votes {
		if v.Success {
			usable++
		}
	}

	res := &model.ReasonResult{Votes: votes, Usage: usage}
	if usable == 0 {
		log.Warn("reason: all providers failed", zap.Error(model.ErrNoVotesCollected))
		res.Consensus = marketFallback(evidence, s.opts.BuyThreshold)
	} else {
		res.Consensus = vote.CalculateConsensus(votes, evidence.Authority)
		res.MarketAssessment = readMarketAssessment(votes)
	}

	res.StageTimeMs = time.Since(start).Milliseconds()
	log.Info("reason: consensus reached",
		zap.Int("votes", usable),
		zap.String("decision", string(res.Consensus.Decision)),
		zap.Float64("confidence", res.Consensus.Confidence),
		zap.String("quality", string(res.Consensus.AnalysisQuality)),
		zap.Int64("stage_ms", res.StageTimeMs),
	)
	return res, nil
}

type outcome struct {
	vote  model.ModelVote
	usage model.ProviderUsage
}

// dispatch time-boxes one provider and always delivers exactly one
// vote; failures become unsuccessful votes, never aborted siblings.
func (s *Stage) dispatch(ctx context.Context, p provider.Provider, prompt string, identity *model.IdentifyResult, req model.AnalysisRequest, out chan<- outcome) {
	timeout := s.opts.StageTimeout
	if t, ok := s.opts.ProviderTimeouts[p.ID()]; ok && t > 0 {
		timeout = t
	}
	pctx, pcancel := context.WithTimeout(ctx, timeout)
	defer pcancel()

	started := time.Now()
	resp, err := p.Analyze(pctx, provider.AnalyzeRequest{Prompt: prompt})
	elapsed := time.Since(started)

	if err != nil {
		failure := err
		if pctx.Err() != nil {
			failure = eris.Wrap(model.ErrProviderTimeout, err.Error())
		}
		zap.L().Debug("reason: provider yielded no vote",
			zap.String("provider", p.ID()),
			zap.Error(failure),
		)
		out <- outcome{vote: model.ModelVote{
			ProviderID:     p.ID(),
			ItemName:       identity.ItemName,
			Category:       identity.Category,
			Weight:         vote.ResolveWeight(p.ID(), req.DynamicWeights),
			ResponseTimeMs: elapsed.Milliseconds(),
			Decision:       model.DecisionHold,
		}}
		return
	}

	out <- outcome{
		vote: vote.Create(p.ID(), p.Family(), resp.Text, resp.Confidence, elapsed, vote.Context{
			DynamicWeights:   req.DynamicWeights,
			FallbackItemName: identity.ItemName,
			FallbackCategory: identity.Category,
		}),
		usage: model.ProviderUsage{
			Provider:     p.ID(),
			Model:        resp.Model,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
		},
	}
}

// readMarketAssessment is a best-effort read of trend/demand from the
// highest-weight successful vote's raw payload.
func readMarketAssessment(votes []model.ModelVote) model.MarketAssessment {
	var best *model.ModelVote
	for i := range votes {
		v := &votes[i]
		if !v.Success || v.RawResponse == nil {
			continue
		}
		if best == nil || v.Weight > best.Weight {
			best = v
		}
	}
	if best == nil {
		return model.MarketAssessment{}
	}

	var ma model.MarketAssessment
	for _, k := range []string{"market_trend", "trend", "marketTrend"} {
		if v, ok := best.RawResponse[k].(string); ok && v != "" {
			ma.Trend = v
			break
		}
	}
	for _, k := range []string{"demand_level", "demandLevel", "demand"} {
		if v, ok := best.RawResponse[k].(string); ok && v != "" {
			ma.DemandLevel = v
			break
		}
	}
	return ma
}
