package memory

import (
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
)

// Memory is an in-process Repository implementation used for development
// and tests.
type Memory struct {
	knowledge *knowledgeRepository
	entity    *entityRepository
	relation  *relationRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		knowledge: newKnowledgeRepository(),
		entity:    newEntityRepository(),
		relation:  newRelationRepository(),
	}
}

func (m *Memory) Knowledge() interfaces.KnowledgeRepository {
	return m.knowledge
}

func (m *Memory) Entity() interfaces.EntityRepository {
	return m.entity
}

func (m *Memory) Relation() interfaces.RelationRepository {
	return m.relation
}

func (m *Memory) Close() error {
	return nil
}
