package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGarbageName(t *testing.T) {
	tests := []struct {
		name    string
		garbage bool
	}{
		// Boilerplate and self-referential replies.
		{"Google Gemini Analysis", true},
		{"Unidentified Object", true},
		{"Unidentified Item", true},
		{"", true},
		{"AI", true},
		{"Gemini", true},
		{"Claude Vision Response", true},
		{"ChatGPT", true},
		{"Image Analysis", true},
		{"analysis", true},
		{"Market Analysis", true},
		{"  ab ", true},

		// Genuine identifications survive, brand words included.
		{"1998 Pikachu Illustrator", false},
		{"Google Pixel 7 Phone", false},
		{"Gemini Zodiac Pendant Necklace", false},
		{"Sony Walkman WM-FX290", false},
		{"Claude Monet Print, Framed", false},
		{"GPT-branded Coffee Mug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.garbage, IsGarbageName(tt.name))
		})
	}
}
