package evidence

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/flipscan/appraise/internal/model"
)

// formatSummary renders the evidence as prompt-ready text. Prices are
// printed with thousands separators so the reasoning models read
// "$1,250.00", not "1250".
func formatSummary(itemName string, sources []model.MarketDataSource, blended *model.BlendedPrice, authority *model.AuthorityData, influence string) string {
	p := message.NewPrinter(language.AmericanEnglish)
	var b strings.Builder

	fmt.Fprintf(&b, "Market evidence for: %s\n", itemName)

	if authority != nil && authority.Verified {
		fmt.Fprintf(&b, "AUTHORITY: %s verified", authority.Source)
		if name := authority.ItemDetails["name"]; name != "" {
			fmt.Fprintf(&b, " — %s", name)
		}
		if grade := authority.ItemDetails["grade"]; grade != "" {
			fmt.Fprintf(&b, " (grade %s)", grade)
		}
		b.WriteString("\n")
	}

	for i := range sources {
		s := &sources[i]
		if !s.Available {
			fmt.Fprintf(&b, "- %s: unavailable (%s)\n", s.Source, s.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %d listings", s.Source, s.Type, s.TotalListings)
		if s.PriceAnalysis != nil {
			b.WriteString(p.Sprintf(", prices $%.2f-$%.2f, median $%.2f",
				s.PriceAnalysis.Lowest, s.PriceAnalysis.Highest, s.PriceAnalysis.Median))
		}
		b.WriteString("\n")
		for _, l := range s.SampleListings {
			b.WriteString(p.Sprintf("    %s — $%.2f", truncate(l.Title, 60), l.Price))
			if l.Condition != "" {
				fmt.Fprintf(&b, " (%s)", l.Condition)
			}
			b.WriteString("\n")
		}
	}

	if blended != nil {
		b.WriteString(p.Sprintf("Blended market price: $%.2f (method: %s)\n", blended.Value, blended.Method))
	}
	fmt.Fprintf(&b, "Market signal: %s\n", influence)

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
