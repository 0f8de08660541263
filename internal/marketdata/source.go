// Package marketdata defines the market-data source boundary and the
// registry the evidence aggregator dispatches against. Sources return
// prices and listings; the aggregator owns timeouts and isolation.
package marketdata

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/resilience"
)

// FetchContext carries per-request extras a source may use: structured
// identifiers recovered by the identify stage and the raw caller
// context (which may embed a barcode).
type FetchContext struct {
	Category          string
	Identifiers       model.Identifiers
	AdditionalContext string
}

// Source is one market-data backend. Fetch returns a terminal
// MarketDataSource or an error; it does not implement its own timeout.
type Source interface {
	ID() string
	Type() model.SourceType
	Fetch(ctx context.Context, query string, fctx FetchContext) (*model.MarketDataSource, error)
}

type entry struct {
	source  Source
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// Registry holds sources with their rate limiters and circuit
// breakers. Construct once, pass by reference; no global state.
type Registry struct {
	entries map[string]*entry
	retry   resilience.RetryConfig
	breaker resilience.CircuitBreakerConfig
}

// NewRegistry creates an empty registry with the given retry policy.
func NewRegistry(retry resilience.RetryConfig) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		retry:   retry,
		breaker: resilience.DefaultCircuitBreakerConfig(),
	}
}

// WithBreaker sets the breaker policy applied to subsequently
// registered sources.
func (r *Registry) WithBreaker(cfg resilience.CircuitBreakerConfig) *Registry {
	r.breaker = cfg
	return r
}

// Register adds a source. A zero limit disables rate limiting for it.
func (r *Registry) Register(s Source, limit rate.Limit, burst int) {
	e := &entry{
		source:  s,
		breaker: resilience.NewCircuitBreaker(r.breaker),
	}
	if limit > 0 {
		e.limiter = rate.NewLimiter(limit, burst)
	}
	r.entries[s.ID()] = e
}

// Get returns a registered source by ID.
func (r *Registry) Get(id string) (Source, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.source, true
}

// IDs returns all registered source IDs.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	return out
}

// Fetch runs one source call through its rate limiter, circuit breaker
// and transient retry. Errors surface to the caller, which converts
// them into an available:false result.
func (r *Registry) Fetch(ctx context.Context, id, query string, fctx FetchContext) (*model.MarketDataSource, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, eris.Wrapf(model.ErrSourceUnavailable, "marketdata: unknown source %q", id)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "marketdata: rate limit wait for %s", id)
		}
	}

	return resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*model.MarketDataSource, error) {
		return resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*model.MarketDataSource, error) {
			return e.source.Fetch(ctx, query, fctx)
		})
	})
}
