package identify

import (
	"regexp"
	"strings"

	"github.com/flipscan/appraise/internal/model"
)

// Identifier patterns. VIN excludes I/O/Q per ISO 3779 and must carry
// at least three digits so ordinary 17-letter phrases don't match.
var (
	vinPattern     = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	isbnPattern    = regexp.MustCompile(`\b(\d{13}|\d{10})\b`)
	cardNumPattern = regexp.MustCompile(`#(\d+)/(\d+)`)
	psaCertPattern = regexp.MustCompile(`\b(\d{8,10})\b`)
)

// structured payload keys checked before falling back to regex.
var (
	vinKeys  = []string{"vin", "VIN", "vehicle_identification_number"}
	isbnKeys = []string{"isbn", "ISBN", "isbn13", "isbn10"}
	cardKeys = []string{"card_number", "cardNumber"}
	certKeys = []string{"cert_number", "certNumber", "psa_cert", "certification_number"}
)

// ExtractIdentifiers recovers structured identifiers, preferring
// explicit payload fields over regex matches in the free text.
func ExtractIdentifiers(payload map[string]any, text string) model.Identifiers {
	var ids model.Identifiers

	ids.VIN = payloadString(payload, vinKeys)
	ids.ISBN = payloadString(payload, isbnKeys)
	ids.CardNumber = payloadString(payload, cardKeys)
	ids.CertNumber = payloadString(payload, certKeys)

	if ids.VIN == "" {
		for _, m := range vinPattern.FindAllString(strings.ToUpper(text), -1) {
			if len(digitPattern.FindAllString(m, -1)) >= 3 {
				ids.VIN = m
				break
			}
		}
	}
	if ids.CardNumber == "" {
		if m := cardNumPattern.FindString(text); m != "" {
			ids.CardNumber = m
		}
	}
	if ids.ISBN == "" {
		ids.ISBN = isbnPattern.FindString(text)
	}
	if ids.CertNumber == "" {
		// A 10-digit ISBN also matches the cert pattern; only take a
		// cert number distinct from the ISBN already captured.
		for _, m := range psaCertPattern.FindAllString(text, -1) {
			if m != ids.ISBN {
				ids.CertNumber = m
				break
			}
		}
	}

	return ids
}

func payloadString(payload map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
