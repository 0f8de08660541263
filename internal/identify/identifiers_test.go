package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIdentifiers_PayloadFieldsWin(t *testing.T) {
	payload := map[string]any{
		"vin":         "1HGBH41JXMN109186",
		"isbn":        "9780134190440",
		"card_number": "#4/102",
		"cert_number": "12345678",
	}

	ids := ExtractIdentifiers(payload, "unrelated text with 9999999999999")

	assert.Equal(t, "1HGBH41JXMN109186", ids.VIN)
	assert.Equal(t, "9780134190440", ids.ISBN)
	assert.Equal(t, "#4/102", ids.CardNumber)
	assert.Equal(t, "12345678", ids.CertNumber)
}

func TestExtractIdentifiers_VINFromText(t *testing.T) {
	ids := ExtractIdentifiers(nil, "1995 Honda Civic, VIN 1hgbh41jxmn109186, clean title")
	assert.Equal(t, "1HGBH41JXMN109186", ids.VIN)

	// 17 letters without enough digits is prose, not a VIN.
	ids = ExtractIdentifiers(nil, "ABCDEFGHJKLMNPRST is not a vehicle")
	assert.Empty(t, ids.VIN)
}

func TestExtractIdentifiers_CardNumberFromText(t *testing.T) {
	ids := ExtractIdentifiers(nil, "Charizard holo #4/102 Base Set")
	assert.Equal(t, "#4/102", ids.CardNumber)
}

func TestExtractIdentifiers_ISBNAndCertDisambiguation(t *testing.T) {
	// A 10-digit ISBN matches the cert pattern too; the cert field only
	// takes a distinct number.
	ids := ExtractIdentifiers(nil, "First edition, ISBN 0134190440")
	assert.Equal(t, "0134190440", ids.ISBN)
	assert.Empty(t, ids.CertNumber)

	ids = ExtractIdentifiers(nil, "ISBN 0134190440, PSA cert 45678901")
	assert.Equal(t, "0134190440", ids.ISBN)
	assert.Equal(t, "45678901", ids.CertNumber)
}

func TestExtractIdentifiers_Empty(t *testing.T) {
	ids := ExtractIdentifiers(nil, "a plain vintage lamp")
	assert.True(t, ids.Empty())
}
