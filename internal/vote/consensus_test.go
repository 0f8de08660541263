package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flipscan/appraise/internal/model"
)

func vote4(provider string, value float64, decision model.Decision, conf, weight float64) model.ModelVote {
	return model.ModelVote{
		ProviderID:     provider,
		ItemName:       "Test Item",
		EstimatedValue: value,
		Decision:       decision,
		Confidence:     conf,
		Weight:         weight,
		Success:        true,
	}
}

func TestCalculateConsensus_WeightedValue(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 100, model.DecisionBuy, 0.9, 1.2),
		vote4("gpt", 120, model.DecisionBuy, 0.8, 1.15),
		vote4("gemini", 80, model.DecisionBuy, 0.7, 1.0),
	}

	c := CalculateConsensus(votes, nil)

	// (100*1.2 + 120*1.15 + 80*1.0) / 3.35
	assert.InDelta(t, 100.90, c.EstimatedValue, 0.01)
	assert.Equal(t, model.DecisionBuy, c.Decision)
	assert.Equal(t, model.QualityNormal, c.AnalysisQuality)
}

func TestCalculateConsensus_MajorityByWeight(t *testing.T) {
	// Two low-weight SELLs outweigh one high-weight BUY.
	votes := []model.ModelVote{
		vote4("claude", 50, model.DecisionBuy, 0.9, 1.2),
		vote4("gemini", 45, model.DecisionSell, 0.8, 1.0),
		vote4("perplexity", 40, model.DecisionSell, 0.7, 0.9),
	}

	c := CalculateConsensus(votes, nil)
	assert.Equal(t, model.DecisionSell, c.Decision)
}

func TestCalculateConsensus_TieBreaksTowardHighestWeightVote(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 50, model.DecisionBuy, 0.8, 1.0),
		vote4("gemini", 50, model.DecisionSell, 0.8, 1.0),
	}

	// Equal total weight and equal top vote: the first decision in
	// BUY > SELL > HOLD precedence wins.
	c := CalculateConsensus(votes, nil)
	assert.Equal(t, model.DecisionBuy, c.Decision)

	// Raise one side's single-vote weight and the tie resolves to it.
	votes = []model.ModelVote{
		vote4("claude", 50, model.DecisionBuy, 0.8, 0.6),
		vote4("x1", 50, model.DecisionBuy, 0.8, 0.6),
		vote4("gpt", 50, model.DecisionSell, 0.8, 1.2),
	}
	c = CalculateConsensus(votes, nil)
	assert.Equal(t, model.DecisionSell, c.Decision)
}

func TestCalculateConsensus_SingleVoteIsDegraded(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 200, model.DecisionBuy, 0.9, 1.2),
	}

	c := CalculateConsensus(votes, nil)
	assert.Equal(t, model.QualityDegraded, c.AnalysisQuality)
	assert.Equal(t, 200.0, c.EstimatedValue)
}

func TestCalculateConsensus_AuthorityCorroborationUpgradesQuality(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 200, model.DecisionBuy, 0.8, 1.2),
	}
	authority := &model.AuthorityData{
		Source:   "psa",
		Verified: true,
		ItemDetails: map[string]string{
			"name": "Test Item PSA 9",
		},
	}

	c := CalculateConsensus(votes, authority)
	assert.Equal(t, model.QualityNormal, c.AnalysisQuality)

	// Corroboration also lifts confidence over the uncorroborated run.
	base := CalculateConsensus(votes, nil)
	assert.Greater(t, c.Confidence, base.Confidence)
}

func TestCalculateConsensus_UnverifiedAuthorityIgnored(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 200, model.DecisionBuy, 0.8, 1.2),
	}
	authority := &model.AuthorityData{
		Source:      "psa",
		Verified:    false,
		ItemDetails: map[string]string{"name": "Test Item"},
	}

	c := CalculateConsensus(votes, authority)
	assert.Equal(t, model.QualityDegraded, c.AnalysisQuality)
}

func TestCalculateConsensus_ConfidenceClamped(t *testing.T) {
	// Four perfectly agreeing, fully confident votes with authority
	// would exceed 100 unclamped.
	votes := []model.ModelVote{
		vote4("claude", 100, model.DecisionBuy, 1.0, 1.2),
		vote4("gpt", 100, model.DecisionBuy, 1.0, 1.15),
		vote4("gemini", 100, model.DecisionBuy, 1.0, 1.0),
		vote4("perplexity", 100, model.DecisionBuy, 1.0, 0.9),
	}
	authority := &model.AuthorityData{
		Verified:    true,
		ItemDetails: map[string]string{"name": "test item"},
	}

	c := CalculateConsensus(votes, authority)
	assert.LessOrEqual(t, c.Confidence, 99.0)

	// A lone contrarian low-confidence vote never drops below the floor.
	low := []model.ModelVote{vote4("perplexity", 5, model.DecisionHold, 0.01, 0.9)}
	c = CalculateConsensus(low, nil)
	assert.GreaterOrEqual(t, c.Confidence, 5.0)
}

func TestCalculateConsensus_IgnoresFailedVotes(t *testing.T) {
	votes := []model.ModelVote{
		{ProviderID: "gemini", Success: false, Weight: 1.0, Decision: model.DecisionHold},
		vote4("claude", 150, model.DecisionSell, 0.85, 1.2),
	}

	c := CalculateConsensus(votes, nil)
	assert.Equal(t, model.DecisionSell, c.Decision)
	assert.Equal(t, 150.0, c.EstimatedValue)
}

func TestCalculateConsensus_NoUsableVotes(t *testing.T) {
	votes := []model.ModelVote{
		{ProviderID: "gemini", Success: false, Weight: 1.0, Decision: model.DecisionHold},
	}

	c := CalculateConsensus(votes, nil)
	assert.Equal(t, model.DecisionHold, c.Decision)
	assert.Equal(t, model.QualityDegraded, c.AnalysisQuality)
	assert.Zero(t, c.EstimatedValue)
}

func TestCalculateConsensus_ZeroValueVotesExcludedFromAverage(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 0, model.DecisionHold, 0.5, 1.2),
		vote4("gpt", 90, model.DecisionHold, 0.6, 1.15),
	}

	c := CalculateConsensus(votes, nil)
	assert.Equal(t, 90.0, c.EstimatedValue)
}

func TestConsensusReasoning_PrefersAgreeingVote(t *testing.T) {
	votes := []model.ModelVote{
		vote4("claude", 100, model.DecisionBuy, 0.9, 1.2),
		vote4("gpt", 100, model.DecisionSell, 0.9, 1.15),
	}
	votes[0].RawResponse = map[string]any{"reasoning": "undervalued at current comps"}

	c := CalculateConsensus(votes, nil)
	assert.Equal(t, model.DecisionBuy, c.Decision)
	assert.Equal(t, "undervalued at current comps", c.Reasoning)
}
