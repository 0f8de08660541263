// Package store persists finished appraisals for history queries and
// export. SQLite serves the single-user CLI; Postgres backs the shared
// API deployment.
package store

import (
	"context"
	"time"

	"github.com/flipscan/appraise/internal/model"
)

// Filter specifies criteria for listing appraisals.
type Filter struct {
	Decision model.Decision `json:"decision,omitempty"`
	Category string         `json:"category,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// Record is one persisted appraisal. Result carries the full pipeline
// output; the flat columns exist for filtering and export.
type Record struct {
	ID             string                `json:"id"`
	ItemName       string                `json:"item_name"`
	Category       string                `json:"category"`
	Decision       model.Decision        `json:"decision"`
	EstimatedValue float64               `json:"estimated_value"`
	Confidence     float64               `json:"confidence"`
	Quality        model.AnalysisQuality `json:"quality"`
	Result         model.AnalysisResult  `json:"result"`
	CreatedAt      time.Time             `json:"created_at"`
}

// Store defines the persistence interface for appraisal history.
type Store interface {
	SaveAppraisal(ctx context.Context, res *model.AnalysisResult) error
	GetAppraisal(ctx context.Context, id string) (*Record, error)
	ListAppraisals(ctx context.Context, filter Filter) ([]Record, error)

	Migrate(ctx context.Context) error
	Close() error
}
