package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Knowledge() KnowledgeRepository
	Entity() EntityRepository
	Relation() RelationRepository

	Close() error
}
