package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
)

// EntityUseCase handles entity and relation management
type EntityUseCase struct {
	repo     interfaces.Repository
	embedder interfaces.EmbeddingClient
}

// NewEntityUseCase creates a new EntityUseCase
func NewEntityUseCase(repo interfaces.Repository, embedder interfaces.EmbeddingClient) *EntityUseCase {
	return &EntityUseCase{
		repo:     repo,
		embedder: embedder,
	}
}

// CreateEntity creates a new entity. The name is embedded so entities
// themselves are discoverable by similarity search.
func (uc *EntityUseCase) CreateEntity(ctx context.Context, name, entityType string, data map[string]string) (*model.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, goerr.New("entity name is required")
	}

	embedding, err := uc.embedder.Generate(ctx, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed entity name", goerr.V("name", name))
	}

	created, err := uc.repo.Entity().Create(ctx, &model.Entity{
		Name:      name,
		Type:      entityType,
		Data:      data,
		Embedding: embedding,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store entity")
	}

	logging.From(ctx).Info("entity created", "id", created.ID, "name", created.Name)

	return created, nil
}

// GetEntity retrieves an entity by ID
func (uc *EntityUseCase) GetEntity(ctx context.Context, id model.EntityID) (*model.Entity, error) {
	return uc.repo.Entity().Get(ctx, id)
}

// GetEntityByName retrieves an entity by its unique name
func (uc *EntityUseCase) GetEntityByName(ctx context.Context, name string) (*model.Entity, error) {
	return uc.repo.Entity().GetByName(ctx, name)
}

// UpdateEntity applies a partial update to an entity. The name is
// immutable, so the embedding never needs to be regenerated here.
func (uc *EntityUseCase) UpdateEntity(ctx context.Context, id model.EntityID, entityType string, data map[string]string) (*model.Entity, error) {
	updated, err := uc.repo.Entity().Update(ctx, id, &model.Entity{
		Type: entityType,
		Data: data,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update entity", goerr.V("id", id))
	}

	return updated, nil
}

// ListEntities retrieves all entities
func (uc *EntityUseCase) ListEntities(ctx context.Context) ([]*model.Entity, error) {
	return uc.repo.Entity().List(ctx)
}

// DeleteEntity removes an entity
func (uc *EntityUseCase) DeleteEntity(ctx context.Context, id model.EntityID) error {
	return uc.repo.Entity().Delete(ctx, id)
}

// CreateRelation creates a relation between two existing entities.
// Both endpoints must exist; a dangling relation would be unreachable
// from either side and is rejected up front.
func (uc *EntityUseCase) CreateRelation(ctx context.Context, sourceID, targetID model.EntityID, relationType string) (*model.Relation, error) {
	if sourceID == "" || targetID == "" {
		return nil, goerr.New("relation requires both source and target entity IDs")
	}

	if _, err := uc.repo.Entity().Get(ctx, sourceID); err != nil {
		return nil, goerr.Wrap(err, "source entity does not exist", goerr.V("sourceID", sourceID))
	}
	if _, err := uc.repo.Entity().Get(ctx, targetID); err != nil {
		return nil, goerr.Wrap(err, "target entity does not exist", goerr.V("targetID", targetID))
	}

	created, err := uc.repo.Relation().Create(ctx, &model.Relation{
		SourceEntityID: sourceID,
		TargetEntityID: targetID,
		Type:           relationType,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store relation")
	}

	logging.From(ctx).Info("relation created",
		"id", created.ID,
		"sourceID", sourceID,
		"targetID", targetID,
		"type", relationType,
	)

	return created, nil
}

// ListRelationsByEntity retrieves relations touching the given entity
func (uc *EntityUseCase) ListRelationsByEntity(ctx context.Context, entityID model.EntityID) ([]*model.Relation, error) {
	return uc.repo.Relation().ListByEntity(ctx, entityID)
}

// DeleteRelation removes a relation
func (uc *EntityUseCase) DeleteRelation(ctx context.Context, id model.RelationID) error {
	return uc.repo.Relation().Delete(ctx, id)
}
