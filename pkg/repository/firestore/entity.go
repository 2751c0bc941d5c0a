package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// entityDoc is the Firestore document representation of model.Entity
type entityDoc struct {
	ID        model.EntityID     `firestore:"ID"`
	Name      string             `firestore:"Name"`
	Type      string             `firestore:"Type,omitempty"`
	Data      map[string]string  `firestore:"Data,omitempty"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
	UpdatedAt time.Time          `firestore:"UpdatedAt"`
}

func toEntityDoc(e *model.Entity) *entityDoc {
	doc := &entityDoc{
		ID:        e.ID,
		Name:      e.Name,
		Type:      e.Type,
		Data:      e.Data,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if len(e.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(e.Embedding)
	}
	return doc
}

func fromEntityDoc(d *entityDoc) *model.Entity {
	e := &model.Entity{
		ID:        d.ID,
		Name:      d.Name,
		Type:      d.Type,
		Data:      d.Data,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		e.Embedding = []float32(d.Embedding)
	}
	return e
}

type entityRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEntityRepository(client *firestore.Client) *entityRepository {
	return &entityRepository{client: client}
}

func (r *entityRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "entities")
}

func (r *entityRepository) Create(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if entity.Name == "" {
		return nil, goerr.New("entity name is required")
	}

	if existing, err := r.GetByName(ctx, entity.Name); err == nil && existing != nil {
		return nil, goerr.New("entity name already exists", goerr.V("name", entity.Name))
	}

	now := time.Now().UTC()
	created := entity.Clone()
	if created.ID == "" {
		created.ID = model.NewEntityID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toEntityDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create entity", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *entityRepository) Get(ctx context.Context, id model.EntityID) (*model.Entity, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get entity", goerr.V("id", id))
	}

	var d entityDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal entity", goerr.V("id", id))
	}

	return fromEntityDoc(&d), nil
}

func (r *entityRepository) GetByName(ctx context.Context, name string) (*model.Entity, error) {
	iter := r.collection().Where("Name", "==", name).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V("name", name))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query entity by name", goerr.V("name", name))
	}

	var d entityDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal entity", goerr.V("name", name))
	}

	return fromEntityDoc(&d), nil
}

func (r *entityRepository) Update(ctx context.Context, id model.EntityID, patch *model.Entity) (*model.Entity, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Type != "" {
		current.Type = patch.Type
	}
	if patch.Data != nil {
		current.Data = patch.Data
	}
	if len(patch.Embedding) > 0 {
		current.Embedding = patch.Embedding
	}
	current.UpdatedAt = time.Now().UTC()

	docRef := r.collection().Doc(string(id))
	if _, err := docRef.Set(ctx, toEntityDoc(current)); err != nil {
		return nil, goerr.Wrap(err, "failed to update entity", goerr.V("id", id))
	}

	return current, nil
}

func (r *entityRepository) List(ctx context.Context) ([]*model.Entity, error) {
	iter := r.collection().OrderBy("CreatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	entities := make([]*model.Entity, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate entities")
		}

		var d entityDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal entity")
		}
		entities = append(entities, fromEntityDoc(&d))
	}

	return entities, nil
}

func (r *entityRepository) Delete(ctx context.Context, id model.EntityID) error {
	docRef := r.collection().Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "entity not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get entity", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete entity", goerr.V("id", id))
	}

	return nil
}
