package evidence

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flipscan/appraise/internal/marketdata"
	"github.com/flipscan/appraise/internal/model"
)

// DefaultSourceTimeout boxes one market-source call.
const DefaultSourceTimeout = 5 * time.Second

// Options configures the aggregator's time boxes.
type Options struct {
	DefaultSourceTimeout time.Duration
	SourceTimeouts       map[string]time.Duration // per-source override
}

// Aggregator fans out to category-selected market sources and reduces
// their results into one evidence summary. Sources are bulkheaded: a
// timeout, error, or malformed reply from one source becomes an
// available:false entry and never disturbs its siblings.
type Aggregator struct {
	registry *marketdata.Registry
	catalog  *Catalog
	opts     Options
}

// New creates an aggregator over the given registry and catalog.
func New(registry *marketdata.Registry, catalog *Catalog, opts Options) *Aggregator {
	if opts.DefaultSourceTimeout <= 0 {
		opts.DefaultSourceTimeout = DefaultSourceTimeout
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Aggregator{registry: registry, catalog: catalog, opts: opts}
}

// Gather collects market evidence for an identified item. It always
// returns a summary; total failure shows up as zero available sources
// and marketConfidence 0, never as an error.
func (a *Aggregator) Gather(ctx context.Context, itemName, category string, fctx marketdata.FetchContext) (*model.EvidenceSummary, error) {
	start := time.Now()
	log := zap.L().With(zap.String("stage", "evidence"), zap.String("item", itemName))

	ids := a.selectSources(category, fctx.AdditionalContext)
	log.Debug("evidence: dispatching sources", zap.Strings("sources", ids))

	sources := make([]model.MarketDataSource, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			sources[i] = a.fetchOne(gctx, id, itemName, fctx)
			return nil
		})
	}
	_ = g.Wait()

	authority := pickAuthority(sources)
	blended := blendPrices(collectPricePoints(sources, a.catalog))
	confidence := scoreConfidence(sources, a.catalog.Scoring)
	influence := classifyInfluence(sources)

	summary := &model.EvidenceSummary{
		Text:             formatSummary(itemName, sources, blended, authority, influence),
		MarketConfidence: confidence,
		Authority:        authority,
		Sources:          sources,
		BlendedPrice:     blended,
		MarketInfluence:  influence,
		StageTimeMs:      time.Since(start).Milliseconds(),
	}

	log.Info("evidence: gathered",
		zap.Int("sources", len(sources)),
		zap.Float64("market_confidence", confidence),
		zap.String("influence", influence),
		zap.Int64("stage_ms", summary.StageTimeMs),
	)
	return summary, nil
}

// selectSources resolves the category mapping, force-injects the
// barcode source when the caller context carries a barcode token, and
// trims to the max-sources budget without dropping the injected source.
func (a *Aggregator) selectSources(category, additionalContext string) []string {
	ids := append([]string(nil), a.catalog.SourcesForCategory(category)...)

	injected := ""
	if _, ok := marketdata.ExtractBarcode(additionalContext); ok {
		if !contains(ids, marketdata.BarcodeSourceID) {
			ids = append(ids, marketdata.BarcodeSourceID)
		}
		injected = marketdata.BarcodeSourceID
	}

	budget := a.catalog.MaxSources
	if budget <= 0 || len(ids) <= budget {
		return ids
	}

	trimmed := ids[:budget]
	if injected != "" && !contains(trimmed, injected) {
		trimmed = append(trimmed[:budget-1], injected)
	}
	return trimmed
}

// fetchOne runs one source inside its own time box and always returns
// a terminal result. The fetch runs in its own goroutine so the box
// holds even for sources that never check the context; the channel is
// buffered so a late reply is dropped instead of leaking the goroutine.
func (a *Aggregator) fetchOne(ctx context.Context, id, query string, fctx marketdata.FetchContext) model.MarketDataSource {
	timeout := a.opts.DefaultSourceTimeout
	if t, ok := a.opts.SourceTimeouts[id]; ok && t > 0 {
		timeout = t
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src, ok := a.registry.Get(id)
	srcType := model.SourceTypeCatalog
	if ok {
		srcType = src.Type()
	}

	type reply struct {
		res *model.MarketDataSource
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		res, err := a.registry.Fetch(sctx, id, query, fctx)
		replies <- reply{res: res, err: err}
	}()

	var res *model.MarketDataSource
	var err error
	select {
	case r := <-replies:
		res, err = r.res, r.err
	case <-sctx.Done():
		err = sctx.Err()
	}

	switch {
	case err != nil:
		msg := err.Error()
		if sctx.Err() == context.DeadlineExceeded {
			msg = "timeout after " + timeout.String()
		}
		zap.L().Debug("evidence: source failed",
			zap.String("source", id),
			zap.Error(err),
		)
		return model.MarketDataSource{
			Source:    id,
			Type:      srcType,
			Available: false,
			Query:     query,
			Error:     msg,
		}
	case res == nil:
		return model.MarketDataSource{
			Source:    id,
			Type:      srcType,
			Available: false,
			Query:     query,
			Error:     "malformed response",
		}
	default:
		return *res
	}
}

// pickAuthority chooses at most one authority reference: the verified
// authority with the highest confidence.
func pickAuthority(sources []model.MarketDataSource) *model.AuthorityData {
	var best *model.AuthorityData
	for i := range sources {
		s := &sources[i]
		if !s.Available || s.AuthorityData == nil || !s.AuthorityData.Verified {
			continue
		}
		if best == nil || s.AuthorityData.Confidence > best.Confidence {
			best = s.AuthorityData
		}
	}
	return best
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
