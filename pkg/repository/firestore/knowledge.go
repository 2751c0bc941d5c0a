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

// distanceField is the document field FindNearest writes the computed
// cosine distance into.
const distanceField = "Distance"

// knowledgeDoc is the Firestore document representation of model.Knowledge.
// Embedding is stored as firestore.Vector32 so that FindNearest vector
// search works.
type knowledgeDoc struct {
	ID        model.KnowledgeID  `firestore:"ID"`
	Content   string             `firestore:"Content"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	EntityID  string             `firestore:"EntityID,omitempty"`
	Source    string             `firestore:"Source,omitempty"`
	Tags      []string           `firestore:"Tags,omitempty"`
	Metadata  map[string]string  `firestore:"Metadata,omitempty"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toKnowledgeDoc(k *model.Knowledge) *knowledgeDoc {
	doc := &knowledgeDoc{
		ID:        k.ID,
		Content:   k.Content,
		EntityID:  string(k.EntityID),
		Source:    k.Source,
		Tags:      k.Tags,
		Metadata:  k.Metadata,
		CreatedAt: k.CreatedAt,
	}
	if len(k.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(k.Embedding)
	}
	return doc
}

func fromKnowledgeDoc(d *knowledgeDoc) *model.Knowledge {
	k := &model.Knowledge{
		ID:        d.ID,
		Content:   d.Content,
		EntityID:  model.EntityID(d.EntityID),
		Source:    d.Source,
		Tags:      d.Tags,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		k.Embedding = []float32(d.Embedding)
	}
	return k
}

type knowledgeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newKnowledgeRepository(client *firestore.Client) *knowledgeRepository {
	return &knowledgeRepository{client: client}
}

func (r *knowledgeRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "knowledges")
}

func (r *knowledgeRepository) Create(ctx context.Context, knowledge *model.Knowledge) (*model.Knowledge, error) {
	created := knowledge.Clone()
	if created.ID == "" {
		created.ID = model.NewKnowledgeID()
	}
	created.CreatedAt = time.Now().UTC()

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toKnowledgeDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create knowledge", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *knowledgeRepository) Get(ctx context.Context, id model.KnowledgeID) (*model.Knowledge, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get knowledge", goerr.V("id", id))
	}

	var d knowledgeDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal knowledge", goerr.V("id", id))
	}

	return fromKnowledgeDoc(&d), nil
}

func (r *knowledgeRepository) ListWithPagination(ctx context.Context, limit, offset int) ([]*model.Knowledge, int, error) {
	allDocs, err := r.collection().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count knowledges")
	}
	total := len(allDocs)

	iter := r.collection().
		OrderBy("CreatedAt", firestore.Desc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	knowledges := make([]*model.Knowledge, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate knowledges")
		}

		var d knowledgeDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to unmarshal knowledge")
		}
		knowledges = append(knowledges, fromKnowledgeDoc(&d))
	}

	return knowledges, total, nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, id model.KnowledgeID) error {
	docRef := r.collection().Doc(string(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get knowledge", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete knowledge", goerr.V("id", id))
	}

	return nil
}

// FindSimilar runs FindNearest with cosine distance and converts the
// reported distance d in [0, 2] to a similarity score 1-d in [-1, 1].
func (r *knowledgeRepository) FindSimilar(ctx context.Context, embedding []float32, limit int, entityID model.EntityID) ([]*model.SearchResult, error) {
	if limit <= 0 {
		return nil, goerr.New("limit must be positive", goerr.V("limit", limit))
	}

	q := r.collection().Query
	if entityID != "" {
		q = q.Where("EntityID", "==", string(entityID))
	}

	vq := q.FindNearest("Embedding", firestore.Vector32(embedding), limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField},
	)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.SearchResult, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				return nil, goerr.Wrap(ErrVectorSearchUnavailable,
					"vector index is not provisioned, run migrate first",
					goerr.V("collection", r.collectionPrefix+"knowledges"),
				)
			}
			return nil, goerr.Wrap(err, "failed to iterate knowledge vector search results")
		}

		var d knowledgeDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal knowledge from vector search")
		}

		distance := 0.0
		if v, err := doc.DataAt(distanceField); err == nil {
			if f, ok := v.(float64); ok {
				distance = f
			}
		}

		results = append(results, &model.SearchResult{
			Knowledge:  fromKnowledgeDoc(&d),
			Similarity: 1 - distance,
		})
	}

	return results, nil
}
