package reason

import (
	"fmt"
	"strings"

	"github.com/flipscan/appraise/internal/model"
)

// buildPrompt embeds the market evidence in a valuation prompt. The
// models see the same evidence the fallback path would use, so their
// votes and the degraded path stay anchored to the same numbers.
func buildPrompt(identity *model.IdentifyResult, evidence *model.EvidenceSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Appraise this item for resale: %s\n", identity.ItemName)
	fmt.Fprintf(&b, "Category: %s, condition: %s\n", identity.Category, identity.Condition)
	if !identity.Identifiers.Empty() {
		ids := identity.Identifiers
		if ids.VIN != "" {
			fmt.Fprintf(&b, "VIN: %s\n", ids.VIN)
		}
		if ids.ISBN != "" {
			fmt.Fprintf(&b, "ISBN: %s\n", ids.ISBN)
		}
		if ids.CardNumber != "" {
			fmt.Fprintf(&b, "Card number: %s\n", ids.CardNumber)
		}
		if ids.CertNumber != "" {
			fmt.Fprintf(&b, "Cert number: %s\n", ids.CertNumber)
		}
	}

	b.WriteString("\n")
	b.WriteString(evidence.Text)
	b.WriteString("\n")

	b.WriteString(`Using the evidence above, respond with only a JSON object:
{"item_name": "<canonical item name>", "estimated_value": <USD number>, "decision": "<BUY|SELL|HOLD>", "confidence": <0.0-1.0>, "reasoning": "<two sentences grounded in the evidence>", "market_trend": "<rising|stable|declining>", "demand_level": "<high|medium|low>"}
Decision guide: BUY if the item can be acquired below fair market and resold at a profit; SELL if the holder should liquidate now; HOLD if the market is moving up or evidence is thin.`)

	return b.String()
}
