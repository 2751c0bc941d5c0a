package model

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Gemini text-embedding models use 768 dimensions. The stored vectors and
// the configured embedding model must agree on this value; a mismatch is a
// deployment configuration error, not a runtime condition to recover from.
const EmbeddingDimension = 768

// KnowledgeID is a UUID-based identifier for Knowledge
type KnowledgeID string

// NewKnowledgeID generates a new UUID v4 KnowledgeID
func NewKnowledgeID() KnowledgeID {
	return KnowledgeID(uuid.New().String())
}

// Knowledge represents a stored memory unit. Records are created by the
// ingest path and are read-only from the retrieval pipeline's perspective.
type Knowledge struct {
	ID        KnowledgeID
	Content   string
	Embedding []float32
	EntityID  EntityID // Optional scope reference for filtered search
	Source    string   // Optional provenance identifier
	Tags      []string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Clone returns a deep copy of the knowledge record
func (k *Knowledge) Clone() *Knowledge {
	copied := &Knowledge{
		ID:        k.ID,
		Content:   k.Content,
		EntityID:  k.EntityID,
		Source:    k.Source,
		CreatedAt: k.CreatedAt,
	}
	if k.Embedding != nil {
		copied.Embedding = make([]float32, len(k.Embedding))
		copy(copied.Embedding, k.Embedding)
	}
	if k.Tags != nil {
		copied.Tags = make([]string, len(k.Tags))
		copy(copied.Tags, k.Tags)
	}
	if k.Metadata != nil {
		copied.Metadata = make(map[string]string, len(k.Metadata))
		for key, v := range k.Metadata {
			copied.Metadata[key] = v
		}
	}
	return copied
}
