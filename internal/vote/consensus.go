package vote

import (
	"fmt"
	"strings"

	"github.com/flipscan/appraise/internal/model"
)

// ConsensusTuning holds the constants behind consensus confidence.
type ConsensusTuning struct {
	// ExtraVoteBonus is added per successful vote beyond the first,
	// up to MaxExtraVotes.
	ExtraVoteBonus float64
	MaxExtraVotes  int

	// AuthorityBonus is added when a vote's identity is corroborated by
	// authority data.
	AuthorityBonus float64

	// MinConfidence/MaxConfidence clamp the published 0-100 confidence.
	MinConfidence float64
	MaxConfidence float64
}

// DefaultTuning returns the production consensus constants.
func DefaultTuning() ConsensusTuning {
	return ConsensusTuning{
		ExtraVoteBonus: 0.05,
		MaxExtraVotes:  3,
		AuthorityBonus: 0.10,
		MinConfidence:  5,
		MaxConfidence:  99,
	}
}

// CalculateConsensus reduces votes into one value/decision/confidence.
// Zero usable votes yields a degraded empty consensus; callers decide
// whether to substitute a market-data fallback.
func CalculateConsensus(votes []model.ModelVote, authority *model.AuthorityData) model.Consensus {
	return calculateConsensus(votes, authority, DefaultTuning())
}

func calculateConsensus(votes []model.ModelVote, authority *model.AuthorityData, tuning ConsensusTuning) model.Consensus {
	usable := make([]model.ModelVote, 0, len(votes))
	for _, v := range votes {
		if v.Success && v.Weight > 0 {
			usable = append(usable, v)
		}
	}

	if len(usable) == 0 {
		return model.Consensus{
			Decision:        model.DecisionHold,
			AnalysisQuality: model.QualityDegraded,
			Reasoning:       "no model votes available",
		}
	}

	// Weighted average value over votes that priced the item.
	var valueSum, valueWeight float64
	for _, v := range usable {
		if v.EstimatedValue > 0 {
			valueSum += v.EstimatedValue * v.Weight
			valueWeight += v.Weight
		}
	}
	var value float64
	if valueWeight > 0 {
		value = valueSum / valueWeight
	}

	decision, agreement, agreeCount := majorityDecision(usable)

	// Weighted mean confidence scaled by agreement, bumped per extra
	// vote and for authority corroboration.
	var confSum, weightSum float64
	for _, v := range usable {
		confSum += v.Confidence * v.Weight
		weightSum += v.Weight
	}
	avgConf := confSum / weightSum

	corroborated := isCorroborated(usable, authority)

	conf := avgConf * agreement
	extras := len(usable) - 1
	if extras > tuning.MaxExtraVotes {
		extras = tuning.MaxExtraVotes
	}
	conf += float64(extras) * tuning.ExtraVoteBonus
	if corroborated {
		conf += tuning.AuthorityBonus
	}
	conf *= 100
	if conf < tuning.MinConfidence {
		conf = tuning.MinConfidence
	}
	if conf > tuning.MaxConfidence {
		conf = tuning.MaxConfidence
	}

	quality := model.QualityDegraded
	if agreeCount >= 2 || corroborated {
		quality = model.QualityNormal
	}

	return model.Consensus{
		EstimatedValue:  value,
		Decision:        decision,
		Confidence:      conf,
		Reasoning:       consensusReasoning(usable, decision),
		AnalysisQuality: quality,
	}
}

// majorityDecision tallies vote weight per decision. Ties break toward
// the decision holding the single highest-weight vote, then HOLD.
func majorityDecision(votes []model.ModelVote) (model.Decision, float64, int) {
	weightBy := map[model.Decision]float64{}
	countBy := map[model.Decision]int{}
	topVoteBy := map[model.Decision]float64{}
	var total float64
	for _, v := range votes {
		weightBy[v.Decision] += v.Weight
		countBy[v.Decision]++
		if v.Weight > topVoteBy[v.Decision] {
			topVoteBy[v.Decision] = v.Weight
		}
		total += v.Weight
	}

	winner := model.DecisionHold
	var winnerWeight float64
	for _, d := range []model.Decision{model.DecisionBuy, model.DecisionSell, model.DecisionHold} {
		w, ok := weightBy[d]
		if !ok {
			continue
		}
		switch {
		case w > winnerWeight:
			winner, winnerWeight = d, w
		case w == winnerWeight && winnerWeight > 0:
			if topVoteBy[d] > topVoteBy[winner] {
				winner = d
			} else if topVoteBy[d] == topVoteBy[winner] && winner != model.DecisionHold && d == model.DecisionHold {
				winner = d
			}
		}
	}

	return winner, winnerWeight / total, countBy[winner]
}

// isCorroborated reports whether any vote's identity lines up with
// verified authority data (name containment either way, or category).
func isCorroborated(votes []model.ModelVote, authority *model.AuthorityData) bool {
	if authority == nil || !authority.Verified {
		return false
	}
	authName := strings.ToLower(authority.ItemDetails["name"])
	authCategory := strings.ToLower(authority.ItemDetails["category"])
	for _, v := range votes {
		name := strings.ToLower(v.ItemName)
		if authName != "" && name != "" &&
			(strings.Contains(authName, name) || strings.Contains(name, authName)) {
			return true
		}
		if authCategory != "" && strings.EqualFold(v.Category, authCategory) {
			return true
		}
	}
	return false
}

// consensusReasoning prefers the highest-weight agreeing vote's own
// reasoning, falling back to a synthesized summary.
func consensusReasoning(votes []model.ModelVote, decision model.Decision) string {
	var best *model.ModelVote
	for i := range votes {
		v := &votes[i]
		if v.Decision != decision {
			continue
		}
		if best == nil || v.Weight > best.Weight {
			best = v
		}
	}
	if best != nil {
		if r, ok := best.RawResponse["reasoning"].(string); ok && r != "" {
			return r
		}
	}
	return fmt.Sprintf("%d of %d models recommend %s", countDecision(votes, decision), len(votes), decision)
}

func countDecision(votes []model.ModelVote, d model.Decision) int {
	n := 0
	for _, v := range votes {
		if v.Decision == d {
			n++
		}
	}
	return n
}
