package interfaces

import (
	"context"

	"github.com/secmon-lab/everecall/pkg/domain/model"
)

// EntityRepository defines the interface for Entity data persistence
type EntityRepository interface {
	// Create creates a new entity. The entity name must be unique.
	Create(ctx context.Context, entity *model.Entity) (*model.Entity, error)

	// Get retrieves an entity by ID
	Get(ctx context.Context, id model.EntityID) (*model.Entity, error)

	// GetByName retrieves an entity by its unique name
	GetByName(ctx context.Context, name string) (*model.Entity, error)

	// Update applies a partial update: only non-zero fields of the patch
	// (Type, Data, Embedding) are written, and UpdatedAt is bumped.
	Update(ctx context.Context, id model.EntityID, patch *model.Entity) (*model.Entity, error)

	// List retrieves all entities ordered by creation time descending
	List(ctx context.Context) ([]*model.Entity, error)

	// Delete deletes an entity by ID
	Delete(ctx context.Context, id model.EntityID) error
}

// RelationRepository defines the interface for Relation data persistence
type RelationRepository interface {
	// Create creates a new relation between two entities
	Create(ctx context.Context, relation *model.Relation) (*model.Relation, error)

	// ListByEntity retrieves relations where the entity is source or target
	ListByEntity(ctx context.Context, entityID model.EntityID) ([]*model.Relation, error)

	// Delete deletes a relation by ID
	Delete(ctx context.Context, id model.RelationID) error
}
