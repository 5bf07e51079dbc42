package services

import (
	"context"

	"github.com/Thagi/paper-scope/internal/domain"
)

// TrendingSource discovers papers from an external listing. Implementations
// must be safe for concurrent use; the ingestion service fans out across
// sources.
type TrendingSource interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]domain.PaperRecord, error)
}
