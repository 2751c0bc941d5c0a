package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/model"
)

type entityRepository struct {
	mu      sync.RWMutex
	entries map[model.EntityID]*model.Entity
}

func newEntityRepository() *entityRepository {
	return &entityRepository{
		entries: make(map[model.EntityID]*model.Entity),
	}
}

func (r *entityRepository) Create(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if entity.Name == "" {
		return nil, goerr.New("entity name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Name == entity.Name {
			return nil, goerr.New("entity name already exists", goerr.V("name", entity.Name))
		}
	}

	now := time.Now().UTC()
	created := entity.Clone()
	if created.ID == "" {
		created.ID = model.NewEntityID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.entries[created.ID] = created
	return created.Clone(), nil
}

func (r *entityRepository) Get(ctx context.Context, id model.EntityID) (*model.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V("id", id))
	}

	return e.Clone(), nil
}

func (r *entityRepository) GetByName(ctx context.Context, name string) (*model.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Name == name {
			return e.Clone(), nil
		}
	}

	return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V("name", name))
}

func (r *entityRepository) Update(ctx context.Context, id model.EntityID, patch *model.Entity) (*model.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V("id", id))
	}

	updated := current.Clone()
	if patch.Type != "" {
		updated.Type = patch.Type
	}
	if patch.Data != nil {
		updated.Data = patch.Data
	}
	if len(patch.Embedding) > 0 {
		updated.Embedding = patch.Embedding
	}
	updated.UpdatedAt = time.Now().UTC()

	r.entries[id] = updated
	return updated.Clone(), nil
}

func (r *entityRepository) List(ctx context.Context) ([]*model.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Entity, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *entityRepository) Delete(ctx context.Context, id model.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "entity not found", goerr.V("id", id))
	}

	delete(r.entries, id)
	return nil
}

type relationRepository struct {
	mu      sync.RWMutex
	entries map[model.RelationID]*model.Relation
}

func newRelationRepository() *relationRepository {
	return &relationRepository{
		entries: make(map[model.RelationID]*model.Relation),
	}
}

func (r *relationRepository) Create(ctx context.Context, relation *model.Relation) (*model.Relation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *relation
	if created.ID == "" {
		created.ID = model.NewRelationID()
	}
	created.CreatedAt = time.Now().UTC()

	stored := created
	r.entries[created.ID] = &stored
	return &created, nil
}

func (r *relationRepository) ListByEntity(ctx context.Context, entityID model.EntityID) ([]*model.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Relation, 0)
	for _, rel := range r.entries {
		if rel.SourceEntityID == entityID || rel.TargetEntityID == entityID {
			copied := *rel
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (r *relationRepository) Delete(ctx context.Context, id model.RelationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "relation not found", goerr.V("id", id))
	}

	delete(r.entries, id)
	return nil
}
