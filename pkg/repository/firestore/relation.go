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

// relationDoc is the Firestore document representation of model.Relation
type relationDoc struct {
	ID             model.RelationID `firestore:"ID"`
	SourceEntityID string           `firestore:"SourceEntityID"`
	TargetEntityID string           `firestore:"TargetEntityID"`
	Type           string           `firestore:"Type"`
	CreatedAt      time.Time        `firestore:"CreatedAt"`
}

type relationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRelationRepository(client *firestore.Client) *relationRepository {
	return &relationRepository{client: client}
}

func (r *relationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "relations")
}

func (r *relationRepository) Create(ctx context.Context, relation *model.Relation) (*model.Relation, error) {
	created := *relation
	if created.ID == "" {
		created.ID = model.NewRelationID()
	}
	created.CreatedAt = time.Now().UTC()

	doc := &relationDoc{
		ID:             created.ID,
		SourceEntityID: string(created.SourceEntityID),
		TargetEntityID: string(created.TargetEntityID),
		Type:           created.Type,
		CreatedAt:      created.CreatedAt,
	}

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create relation", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *relationRepository) ListByEntity(ctx context.Context, entityID model.EntityID) ([]*model.Relation, error) {
	relations := make([]*model.Relation, 0)

	for _, field := range []string{"SourceEntityID", "TargetEntityID"} {
		iter := r.collection().Where(field, "==", string(entityID)).Documents(ctx)

		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, goerr.Wrap(err, "failed to iterate relations", goerr.V("entityID", entityID))
			}

			var d relationDoc
			if err := doc.DataTo(&d); err != nil {
				iter.Stop()
				return nil, goerr.Wrap(err, "failed to unmarshal relation")
			}
			relations = append(relations, &model.Relation{
				ID:             d.ID,
				SourceEntityID: model.EntityID(d.SourceEntityID),
				TargetEntityID: model.EntityID(d.TargetEntityID),
				Type:           d.Type,
				CreatedAt:      d.CreatedAt,
			})
		}
		iter.Stop()
	}

	return relations, nil
}

func (r *relationRepository) Delete(ctx context.Context, id model.RelationID) error {
	docRef := r.collection().Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "relation not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get relation", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete relation", goerr.V("id", id))
	}

	return nil
}
