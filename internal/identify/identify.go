// Package identify races vision providers to put a name on an item.
// First valid (non-garbage) identification wins; slower providers are
// abandoned. A hint fallback is a successful terminal outcome.
package identify

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/provider"
	"github.com/flipscan/appraise/internal/vote"
)

// Prompt is identification-only: valuation happens later with evidence
// in hand, so the vision pass stays cheap and fast.
const Prompt = `You are identifying a physical item from photographs. Respond with only a JSON object:
{"item_name": "<specific name: brand, model, year, edition>", "category": "<one of: trading cards, coins, video games, books, electronics, toys, collectibles, jewelry, general>", "condition": "<mint|good|fair|poor|unknown>", "confidence": <0.0-1.0>, "description": "<one sentence>", "vin": "<vehicles only>", "isbn": "<books only>", "card_number": "<trading cards only, #N/M>", "cert_number": "<graded items only>"}
Omit identifier fields that do not apply. Never answer with a placeholder such as "Unidentified Item".`

// DefaultStageTimeout bounds the whole race.
const DefaultStageTimeout = 8 * time.Second

// Options configures the identify stage.
type Options struct {
	StageTimeout     time.Duration
	ProviderTimeouts map[string]time.Duration // per-provider override
}

// Stage runs the first-responder identification race.
type Stage struct {
	registry *provider.Registry
	opts     Options
}

// New creates an identify stage over the registry's vision providers.
func New(registry *provider.Registry, opts Options) *Stage {
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = DefaultStageTimeout
	}
	return &Stage{registry: registry, opts: opts}
}

type candidate struct {
	providerID string
	vote       model.ModelVote
	payload    map[string]any
	usage      model.ProviderUsage
	err        error
}

// Run races all vision providers and resolves on the first non-garbage
// identification. If nothing valid arrives within the stage timeout the
// caller-supplied hint becomes the identity (PrimaryProvider "none").
// The only error case is having neither providers nor a hint to fall
// back on.
func (s *Stage) Run(ctx context.Context, req model.AnalysisRequest) (*model.IdentifyResult, error) {
	start := time.Now()
	log := zap.L().With(zap.String("stage", "identify"))

	providers := s.registry.Vision()
	if len(providers) == 0 || len(req.Images) == 0 {
		if strings.TrimSpace(req.Hint) == "" {
			return nil, eris.Wrap(model.ErrNoProvidersConfigured, "identify: no vision providers and no hint")
		}
		log.Info("identify: skipping race", zap.Int("providers", len(providers)), zap.Int("images", len(req.Images)))
		return s.fallback(req, nil, start), nil
	}

	raceCtx, cancel := context.WithTimeout(ctx, s.opts.StageTimeout)
	defer cancel()

	// Buffered so abandoned providers can deliver and exit without a
	// reader; their timers are released by the per-provider cancel.
	results := make(chan candidate, len(providers))
	for _, p := range providers {
		go s.dispatch(raceCtx, p, req, results)
	}

	var votes []model.ModelVote
	var usage []model.ProviderUsage
	for received := 0; received < len(providers); received++ {
		var c candidate
		select {
		case <-raceCtx.Done():
			res := s.fallback(req, votes, start)
			res.Usage = usage
			return res, nil
		case c = <-results:
		}
		if c.usage.Provider != "" {
			usage = append(usage, c.usage)
		}

		if c.err != nil {
			log.Debug("identify: provider failed",
				zap.String("provider", c.providerID),
				zap.Error(c.err),
			)
			votes = append(votes, c.vote)
			continue
		}

		if IsGarbageName(c.vote.ItemName) {
			log.Debug("identify: garbage name rejected",
				zap.String("provider", c.providerID),
				zap.String("name", c.vote.ItemName),
			)
			c.vote.Success = false
			votes = append(votes, c.vote)
			continue
		}

		// First valid responder wins; abandon the rest.
		cancel()
		votes = append(votes, c.vote)
		res := s.resolve(req, c, votes, start)
		res.Usage = usage
		log.Info("identify: resolved",
			zap.String("provider", c.providerID),
			zap.String("item", res.ItemName),
			zap.Int64("stage_ms", res.StageTimeMs),
		)
		return res, nil
	}

	// Every provider answered and none survived the garbage filter.
	res := s.fallback(req, votes, start)
	res.Usage = usage
	return res, nil
}

// dispatch runs one provider inside its own time box and always
// delivers exactly one candidate.
func (s *Stage) dispatch(ctx context.Context, p provider.Provider, req model.AnalysisRequest, out chan<- candidate) {
	timeout := s.opts.StageTimeout
	if t, ok := s.opts.ProviderTimeouts[p.ID()]; ok && t > 0 {
		timeout = t
	}
	pctx, pcancel := context.WithTimeout(ctx, timeout)
	defer pcancel()

	started := time.Now()
	resp, err := p.Analyze(pctx, provider.AnalyzeRequest{Images: req.Images, Prompt: Prompt})
	elapsed := time.Since(started)

	if err != nil {
		failure := model.ErrProviderRejected
		if eris.Is(err, context.DeadlineExceeded) || pctx.Err() != nil {
			failure = model.ErrProviderTimeout
		}
		out <- candidate{
			providerID: p.ID(),
			err:        eris.Wrap(failure, err.Error()),
			vote: model.ModelVote{
				ProviderID:     p.ID(),
				Weight:         vote.ResolveWeight(p.ID(), req.DynamicWeights),
				ResponseTimeMs: elapsed.Milliseconds(),
				Decision:       model.DecisionHold,
			},
		}
		return
	}

	v := vote.Create(p.ID(), p.Family(), resp.Text, resp.Confidence, elapsed, vote.Context{
		DynamicWeights:   req.DynamicWeights,
		FallbackCategory: req.CategoryHint,
	})
	out <- candidate{providerID: p.ID(), vote: v, payload: v.RawResponse, usage: model.ProviderUsage{
		Provider:     p.ID(),
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}}
}

// resolve builds the stage envelope from the winning candidate.
func (s *Stage) resolve(req model.AnalysisRequest, winner candidate, votes []model.ModelVote, start time.Time) *model.IdentifyResult {
	category := winner.vote.Category
	if category == "" {
		category = req.CategoryHint
	}
	if category == "" {
		category = "general"
	}

	condition := "unknown"
	description := ""
	if winner.payload != nil {
		if c, ok := winner.payload["condition"].(string); ok && c != "" {
			condition = c
		}
		if d, ok := winner.payload["description"].(string); ok {
			description = d
		}
	}

	searchText := winner.vote.ItemName + " " + description + " " + req.AdditionalContext
	return &model.IdentifyResult{
		ItemName:        winner.vote.ItemName,
		Category:        category,
		Condition:       condition,
		Identifiers:     ExtractIdentifiers(winner.payload, searchText),
		Description:     description,
		PrimaryProvider: winner.providerID,
		Votes:           votes,
		StageTimeMs:     time.Since(start).Milliseconds(),
	}
}

// fallback produces the hint-based identity. Not an error: the pipeline
// continues on whatever the caller knew about the item.
func (s *Stage) fallback(req model.AnalysisRequest, votes []model.ModelVote, start time.Time) *model.IdentifyResult {
	name := strings.TrimSpace(req.Hint)
	if name == "" {
		name = "Unidentified Item"
	}
	category := req.CategoryHint
	if category == "" {
		category = "general"
	}
	return &model.IdentifyResult{
		ItemName:        name,
		Category:        category,
		Condition:       "unknown",
		Identifiers:     ExtractIdentifiers(nil, name+" "+req.AdditionalContext),
		PrimaryProvider: "none",
		Votes:           votes,
		StageTimeMs:     time.Since(start).Milliseconds(),
	}
}
