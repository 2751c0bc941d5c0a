package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityID is a UUID-based identifier for Entity
type EntityID string

// NewEntityID generates a new UUID v4 EntityID
func NewEntityID() EntityID {
	return EntityID(uuid.New().String())
}

// RelationID is a UUID-based identifier for Relation
type RelationID string

// NewRelationID generates a new UUID v4 RelationID
func NewRelationID() RelationID {
	return RelationID(uuid.New().String())
}

// Entity is a named object in the memory graph. Knowledge records may
// reference an entity to scope similarity search.
type Entity struct {
	ID        EntityID
	Name      string // Unique within a deployment
	Type      string
	Data      map[string]string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the entity
func (e *Entity) Clone() *Entity {
	copied := &Entity{
		ID:        e.ID,
		Name:      e.Name,
		Type:      e.Type,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Data != nil {
		copied.Data = make(map[string]string, len(e.Data))
		for k, v := range e.Data {
			copied.Data[k] = v
		}
	}
	if e.Embedding != nil {
		copied.Embedding = make([]float32, len(e.Embedding))
		copy(copied.Embedding, e.Embedding)
	}
	return copied
}

// Relation is a typed directed edge between two entities
type Relation struct {
	ID             RelationID
	SourceEntityID EntityID
	TargetEntityID EntityID
	Type           string
	CreatedAt      time.Time
}
