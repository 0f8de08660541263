package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipscan/appraise/internal/marketdata"
	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/resilience"
)

// stubSource returns a canned result after an optional delay.
type stubSource struct {
	id     string
	typ    model.SourceType
	delay  time.Duration
	result *model.MarketDataSource
	err    error
}

func (s *stubSource) ID() string             { return s.id }
func (s *stubSource) Type() model.SourceType { return s.typ }

func (s *stubSource) Fetch(ctx context.Context, query string, fctx marketdata.FetchContext) (*model.MarketDataSource, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &model.MarketDataSource{
		Source:    s.id,
		Type:      s.typ,
		Available: true,
		Query:     query,
	}, nil
}

// stallSource sleeps without ever checking the context, like a client
// doing blocking I/O with no cancellation plumbing.
type stallSource struct {
	id    string
	delay time.Duration
}

func (s *stallSource) ID() string             { return s.id }
func (s *stallSource) Type() model.SourceType { return model.SourceTypeRetail }

func (s *stallSource) Fetch(_ context.Context, query string, _ marketdata.FetchContext) (*model.MarketDataSource, error) {
	time.Sleep(s.delay)
	return &model.MarketDataSource{
		Source:    s.id,
		Type:      model.SourceTypeRetail,
		Available: true,
		Query:     query,
	}, nil
}

func testRegistry(sources ...marketdata.Source) *marketdata.Registry {
	reg := marketdata.NewRegistry(resilience.RetryConfig{MaxAttempts: 1})
	for _, s := range sources {
		reg.Register(s, 0, 0)
	}
	return reg
}

func testCatalog(category string, ids ...string) *Catalog {
	cat := DefaultCatalog()
	cat.Categories = map[string][]string{category: ids}
	cat.Default = ids
	return cat
}

func TestGather_SlowSourceIsolated(t *testing.T) {
	fast := &stubSource{
		id: "ebay", typ: model.SourceTypeMarketplace,
		result: &model.MarketDataSource{
			Source: "ebay", Type: model.SourceTypeMarketplace, Available: true,
			PriceAnalysis: &model.PriceAnalysis{Median: 60},
		},
	}
	slow := &stubSource{id: "keepa", typ: model.SourceTypeRetail, delay: time.Second}

	agg := New(testRegistry(fast, slow), testCatalog("electronics", "ebay", "keepa"), Options{
		DefaultSourceTimeout: 30 * time.Millisecond,
	})

	summary, err := agg.Gather(context.Background(), "Sony Walkman", "electronics", marketdata.FetchContext{})
	require.NoError(t, err)
	require.Len(t, summary.Sources, 2)

	byID := map[string]model.MarketDataSource{}
	for _, s := range summary.Sources {
		byID[s.Source] = s
	}

	assert.True(t, byID["ebay"].Available)
	assert.False(t, byID["keepa"].Available)
	assert.Contains(t, byID["keepa"].Error, "timeout")

	// The surviving source still produces a blended price.
	require.NotNil(t, summary.BlendedPrice)
	assert.Equal(t, 60.0, summary.BlendedPrice.Value)
}

func TestGather_CtxIgnoringSourceStillTimeBoxed(t *testing.T) {
	fast := &stubSource{
		id: "ebay", typ: model.SourceTypeMarketplace,
		result: &model.MarketDataSource{
			Source: "ebay", Type: model.SourceTypeMarketplace, Available: true,
			PriceAnalysis: &model.PriceAnalysis{Median: 60},
		},
	}
	stall := &stallSource{id: "keepa", delay: 2 * time.Second}

	agg := New(testRegistry(fast, stall), testCatalog("electronics", "ebay", "keepa"), Options{
		DefaultSourceTimeout: 30 * time.Millisecond,
	})

	start := time.Now()
	summary, err := agg.Gather(context.Background(), "Sony Walkman", "electronics", marketdata.FetchContext{})
	require.NoError(t, err)
	// Gather returns once the box expires, not when the stalled fetch
	// finally wakes up.
	assert.Less(t, time.Since(start), time.Second)

	byID := map[string]model.MarketDataSource{}
	for _, s := range summary.Sources {
		byID[s.Source] = s
	}
	assert.True(t, byID["ebay"].Available)
	assert.False(t, byID["keepa"].Available)
	assert.Contains(t, byID["keepa"].Error, "timeout")
}

func TestGather_ErroringSourceIsolated(t *testing.T) {
	good := &stubSource{
		id: "ebay", typ: model.SourceTypeMarketplace,
		result: &model.MarketDataSource{
			Source: "ebay", Type: model.SourceTypeMarketplace, Available: true,
			PriceAnalysis: &model.PriceAnalysis{Median: 45},
		},
	}
	bad := &stubSource{id: "keepa", typ: model.SourceTypeRetail, err: eris.New("503 upstream down")}

	agg := New(testRegistry(good, bad), testCatalog("electronics", "ebay", "keepa"), Options{})

	summary, err := agg.Gather(context.Background(), "Sony Walkman", "electronics", marketdata.FetchContext{})
	require.NoError(t, err)

	byID := map[string]model.MarketDataSource{}
	for _, s := range summary.Sources {
		byID[s.Source] = s
	}
	assert.True(t, byID["ebay"].Available)
	assert.False(t, byID["keepa"].Available)
	assert.Contains(t, byID["keepa"].Error, "503")
}

func TestGather_TotalFailureYieldsEmptySummary(t *testing.T) {
	bad := &stubSource{id: "ebay", typ: model.SourceTypeMarketplace, err: eris.New("down")}

	agg := New(testRegistry(bad), testCatalog("electronics", "ebay"), Options{})

	summary, err := agg.Gather(context.Background(), "Sony Walkman", "electronics", marketdata.FetchContext{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.MarketConfidence)
	assert.Nil(t, summary.BlendedPrice)
	assert.Equal(t, "insufficient_data", summary.MarketInfluence)
}

func TestGather_UnknownSourceBecomesUnavailable(t *testing.T) {
	agg := New(testRegistry(), testCatalog("electronics", "ghost"), Options{})

	summary, err := agg.Gather(context.Background(), "Sony Walkman", "electronics", marketdata.FetchContext{})
	require.NoError(t, err)
	require.Len(t, summary.Sources, 1)
	assert.False(t, summary.Sources[0].Available)
}

func TestGather_PicksVerifiedAuthority(t *testing.T) {
	authority := &stubSource{
		id: "psacard", typ: model.SourceTypeAuthority,
		result: &model.MarketDataSource{
			Source: "psacard", Type: model.SourceTypeAuthority, Available: true,
			AuthorityData: &model.AuthorityData{
				Source: "psacard", Verified: true, Confidence: 0.92,
				PriceData: &model.PriceAnalysis{Median: 250},
			},
		},
	}
	unverified := &stubSource{
		id: "ebay", typ: model.SourceTypeMarketplace,
		result: &model.MarketDataSource{
			Source: "ebay", Type: model.SourceTypeMarketplace, Available: true,
			AuthorityData: &model.AuthorityData{Source: "ebay", Verified: false, Confidence: 0.99},
		},
	}

	agg := New(testRegistry(authority, unverified), testCatalog("trading cards", "psacard", "ebay"), Options{})

	summary, err := agg.Gather(context.Background(), "Charizard", "trading cards", marketdata.FetchContext{})
	require.NoError(t, err)
	require.NotNil(t, summary.Authority)
	assert.Equal(t, "psacard", summary.Authority.Source)
}

func TestSelectSources_BarcodeInjection(t *testing.T) {
	agg := New(testRegistry(), testCatalog("electronics", "ebay", "keepa"), Options{})

	ids := agg.selectSources("electronics", "sealed, UPC 012345678905")
	assert.Contains(t, ids, marketdata.BarcodeSourceID)

	ids = agg.selectSources("electronics", "no code here")
	assert.NotContains(t, ids, marketdata.BarcodeSourceID)
}

func TestSelectSources_BudgetKeepsInjectedSource(t *testing.T) {
	cat := testCatalog("electronics", "ebay", "keepa", "pricecharting", "psacard")
	cat.MaxSources = 3
	agg := New(testRegistry(), cat, Options{})

	ids := agg.selectSources("electronics", "UPC 012345678905")
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, marketdata.BarcodeSourceID)
}

func TestSelectSources_AlreadyListedBarcodeSourceNotDuplicated(t *testing.T) {
	cat := testCatalog("electronics", "ebay", marketdata.BarcodeSourceID)
	agg := New(testRegistry(), cat, Options{})

	ids := agg.selectSources("electronics", "UPC 012345678905")
	assert.Equal(t, []string{"ebay", marketdata.BarcodeSourceID}, ids)
}
