package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
)

type Firestore struct {
	client    *firestore.Client
	knowledge *knowledgeRepository
	entity    *entityRepository
	relation  *relationRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes all collection names, mainly for tests
// sharing one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.knowledge.collectionPrefix = prefix
		f.entity.collectionPrefix = prefix
		f.relation.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client:    client,
		knowledge: newKnowledgeRepository(client),
		entity:    newEntityRepository(client),
		relation:  newRelationRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Knowledge() interfaces.KnowledgeRepository {
	return f.knowledge
}

func (f *Firestore) Entity() interfaces.EntityRepository {
	return f.entity
}

func (f *Firestore) Relation() interfaces.RelationRepository {
	return f.relation
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
