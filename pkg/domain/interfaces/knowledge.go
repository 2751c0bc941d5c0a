package interfaces

import (
	"context"

	"github.com/secmon-lab/everecall/pkg/domain/model"
)

// KnowledgeRepository defines the interface for Knowledge data persistence
type KnowledgeRepository interface {
	// Create creates a new knowledge record
	Create(ctx context.Context, knowledge *model.Knowledge) (*model.Knowledge, error)

	// Get retrieves a knowledge record by ID
	Get(ctx context.Context, id model.KnowledgeID) (*model.Knowledge, error)

	// ListWithPagination retrieves knowledge records with pagination.
	// Returns records, total count, and error.
	ListWithPagination(ctx context.Context, limit, offset int) ([]*model.Knowledge, int, error)

	// Delete deletes a knowledge record by ID
	Delete(ctx context.Context, id model.KnowledgeID) error

	// FindSimilar performs vector similarity search and returns up to limit
	// results ordered by descending similarity (cosine, higher = closer).
	// A non-empty entityID restricts matches to records scoped to that
	// entity. The repository performs no retries; provider errors are
	// returned as-is for the caller to classify.
	FindSimilar(ctx context.Context, embedding []float32, limit int, entityID model.EntityID) ([]*model.SearchResult, error)
}
