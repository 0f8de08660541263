package evidence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipscan/appraise/internal/model"
)

func TestSourcesForCategory(t *testing.T) {
	cat := DefaultCatalog()

	tests := []struct {
		category string
		want     []string
	}{
		{"trading cards", []string{"psacard", "ebay", "pricecharting"}},
		{"Trading Cards", []string{"psacard", "ebay", "pricecharting"}},
		{"pokemon trading cards", []string{"psacard", "ebay", "pricecharting"}},
		{"electronics", []string{"ebay", "keepa", "upcitemdb"}},
		{"", []string{"ebay", "keepa"}},
		{"taxidermy", []string{"ebay", "keepa"}},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, cat.SourcesForCategory(tt.category))
		})
	}
}

func TestBlendWeight(t *testing.T) {
	cat := DefaultCatalog()

	assert.Equal(t, 1.5, cat.BlendWeight(model.SourceTypeAuthority))
	assert.Equal(t, 1.3, cat.BlendWeight(model.SourceTypeRetail))
	assert.Equal(t, 1.15, cat.BlendWeight(model.SourceTypeMarketplace))
	assert.Equal(t, 1.0, cat.BlendWeight(model.SourceTypeCatalog))
	assert.Equal(t, 1.0, cat.BlendWeight(model.SourceType("unknown")))
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
categories:
  vinyl records: [ebay, keepa]
default: [ebay]
max_sources: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ebay", "keepa"}, cat.SourcesForCategory("vinyl records"))
	assert.Equal(t, []string{"ebay"}, cat.Default)
	assert.Equal(t, 2, cat.MaxSources)
	// Unset tables keep the built-in defaults.
	assert.Equal(t, 1.5, cat.BlendWeight(model.SourceTypeAuthority))
	assert.Equal(t, 0.98, cat.Scoring.Cap)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
