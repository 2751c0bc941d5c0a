package interfaces

import (
	"context"

	"github.com/secmon-lab/everecall/pkg/domain/model"
)

// EmbeddingClient converts text into a fixed-dimension vector.
// The returned vector length is always model.EmbeddingDimension.
type EmbeddingClient interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// QueryExpander produces alternate phrasings of a query to widen retrieval
// recall. The returned variants exclude the original query and never exceed
// count entries. Expansion is best-effort: callers must treat any error as
// non-fatal and continue with the original query only.
type QueryExpander interface {
	Expand(ctx context.Context, query string, count int) ([]model.QueryVariant, error)
}
