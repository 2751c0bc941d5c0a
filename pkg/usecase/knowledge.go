package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
)

// IngestInput holds the fields for a new knowledge record
type IngestInput struct {
	Content  string
	EntityID model.EntityID
	Source   string
	Tags     []string
	Metadata map[string]string
}

// KnowledgeUseCase handles the knowledge ingest path. Embeddings are
// generated at insertion so the retrieval pipeline can treat stored
// records as read-only.
type KnowledgeUseCase struct {
	repo     interfaces.Repository
	embedder interfaces.EmbeddingClient
}

// NewKnowledgeUseCase creates a new KnowledgeUseCase
func NewKnowledgeUseCase(repo interfaces.Repository, embedder interfaces.EmbeddingClient) *KnowledgeUseCase {
	return &KnowledgeUseCase{
		repo:     repo,
		embedder: embedder,
	}
}

// Ingest embeds the content and stores it as a new knowledge record.
// Unlike retrieval, an embedding failure here is a hard error: a record
// without a vector would be invisible to similarity search.
func (uc *KnowledgeUseCase) Ingest(ctx context.Context, input IngestInput) (*model.Knowledge, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, goerr.New("knowledge content is required")
	}

	if input.EntityID != "" {
		if _, err := uc.repo.Entity().Get(ctx, input.EntityID); err != nil {
			return nil, goerr.Wrap(err, "referenced entity does not exist", goerr.V("entityID", input.EntityID))
		}
	}

	embedding, err := uc.embedder.Generate(ctx, input.Content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed knowledge content")
	}

	created, err := uc.repo.Knowledge().Create(ctx, &model.Knowledge{
		Content:   input.Content,
		Embedding: embedding,
		EntityID:  input.EntityID,
		Source:    input.Source,
		Tags:      input.Tags,
		Metadata:  input.Metadata,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store knowledge")
	}

	logging.From(ctx).Info("knowledge ingested",
		"id", created.ID,
		"entityID", created.EntityID,
		"source", created.Source,
	)

	return created, nil
}

// Get retrieves a knowledge record by ID
func (uc *KnowledgeUseCase) Get(ctx context.Context, id model.KnowledgeID) (*model.Knowledge, error) {
	return uc.repo.Knowledge().Get(ctx, id)
}

// List retrieves knowledge records with pagination
func (uc *KnowledgeUseCase) List(ctx context.Context, limit, offset int) ([]*model.Knowledge, int, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.repo.Knowledge().ListWithPagination(ctx, limit, offset)
}

// Delete removes a knowledge record
func (uc *KnowledgeUseCase) Delete(ctx context.Context, id model.KnowledgeID) error {
	return uc.repo.Knowledge().Delete(ctx, id)
}
