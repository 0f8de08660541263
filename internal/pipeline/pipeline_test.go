package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipscan/appraise/internal/cost"
	"github.com/flipscan/appraise/internal/evidence"
	"github.com/flipscan/appraise/internal/identify"
	"github.com/flipscan/appraise/internal/marketdata"
	"github.com/flipscan/appraise/internal/model"
	"github.com/flipscan/appraise/internal/provider"
	"github.com/flipscan/appraise/internal/reason"
	"github.com/flipscan/appraise/internal/resilience"
	"github.com/flipscan/appraise/internal/vote"
)

type fakeProvider struct {
	id     string
	family vote.Family
	text   string
}

func (f *fakeProvider) ID() string          { return f.id }
func (f *fakeProvider) Family() vote.Family { return f.family }
func (f *fakeProvider) Vision() bool        { return true }
func (f *fakeProvider) Reasoning() bool     { return true }

func (f *fakeProvider) Analyze(ctx context.Context, req provider.AnalyzeRequest) (*provider.AnalyzeResponse, error) {
	return &provider.AnalyzeResponse{Text: f.text, Confidence: 0.8}, nil
}

type fakeSource struct {
	result *model.MarketDataSource
}

func (s *fakeSource) ID() string             { return s.result.Source }
func (s *fakeSource) Type() model.SourceType { return s.result.Type }

func (s *fakeSource) Fetch(ctx context.Context, query string, fctx marketdata.FetchContext) (*model.MarketDataSource, error) {
	return s.result, nil
}

type memoryRecorder struct {
	saved []*model.AnalysisResult
	err   error
}

func (r *memoryRecorder) SaveAppraisal(ctx context.Context, res *model.AnalysisResult) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, res)
	return nil
}

func buildPipeline(recorder Recorder) *Pipeline {
	reply := `{"item_name": "Sony Walkman WM-FX290", "category": "electronics", "condition": "good",
		"estimated_value": 85, "decision": "BUY", "confidence": 0.8, "reasoning": "steady demand"}`
	registry := provider.NewRegistry(
		&fakeProvider{id: "claude", family: vote.FamilyAnthropic, text: reply},
		&fakeProvider{id: "gpt", family: vote.FamilyOpenAI, text: reply},
	)

	market := marketdata.NewRegistry(resilience.RetryConfig{MaxAttempts: 1})
	market.Register(&fakeSource{result: &model.MarketDataSource{
		Source: "ebay", Type: model.SourceTypeMarketplace, Available: true,
		PriceAnalysis: &model.PriceAnalysis{Median: 80},
	}}, 0, 0)

	catalog := evidence.DefaultCatalog()
	catalog.Categories = map[string][]string{"electronics": {"ebay"}}
	catalog.Default = []string{"ebay"}

	return New(
		identify.New(registry, identify.Options{StageTimeout: time.Second}),
		evidence.New(market, catalog, evidence.Options{}),
		reason.New(registry, reason.Options{StageTimeout: time.Second}),
		recorder,
	).WithCosts(cost.NewCalculator(cost.DefaultRates()))
}

func imageRequest() model.AnalysisRequest {
	return model.AnalysisRequest{
		Images: []model.ImageRef{{URL: "https://example.com/item.jpg"}},
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	recorder := &memoryRecorder{}
	p := buildPipeline(recorder)

	res, err := p.Analyze(context.Background(), imageRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Sony Walkman WM-FX290", res.ItemName)
	assert.Equal(t, "electronics", res.Category)
	assert.Equal(t, model.DecisionBuy, res.Consensus.Decision)
	assert.Equal(t, model.QualityNormal, res.Consensus.AnalysisQuality)
	require.Len(t, res.EvidenceSources, 1)
	assert.True(t, res.EvidenceSources[0].Available)
	require.NotNil(t, res.BlendedPrice)
	assert.Equal(t, 80.0, res.BlendedPrice.Value)
	assert.GreaterOrEqual(t, res.StageTimings.TotalMs, res.StageTimings.ReasonMs)
	assert.NotEmpty(t, res.Usage)

	require.Len(t, recorder.saved, 1)
	assert.Equal(t, res.ID, recorder.saved[0].ID)
}

func TestAnalyze_NoInput(t *testing.T) {
	p := buildPipeline(nil)

	_, err := p.Analyze(context.Background(), model.AnalysisRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoInput)
}

func TestAnalyze_HintOnlyRuns(t *testing.T) {
	p := buildPipeline(nil)

	res, err := p.Analyze(context.Background(), model.AnalysisRequest{Hint: "vintage walkman"})
	require.NoError(t, err)
	// No images means no vision race; the hint is the identity.
	assert.Equal(t, "vintage walkman", res.ItemName)
	assert.NotEqual(t, model.Decision(""), res.Consensus.Decision)
}

func TestAnalyze_RecorderFailureIsSwallowed(t *testing.T) {
	p := buildPipeline(&memoryRecorder{err: eris.New("disk full")})

	res, err := p.Analyze(context.Background(), imageRequest())
	require.NoError(t, err)
	assert.NotNil(t, res)
}
