package usecase

import (
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
)

type UseCases struct {
	repo interfaces.Repository

	Retrieval *RetrievalUseCase
	Knowledge *KnowledgeUseCase
	Entity    *EntityUseCase
}

// New wires the use cases with their dependencies. The expander may be nil
// when no LLM provider is configured; retrieval then runs with the original
// query only.
func New(repo interfaces.Repository, embedder interfaces.EmbeddingClient, expander interfaces.QueryExpander) *UseCases {
	return &UseCases{
		repo:      repo,
		Retrieval: NewRetrievalUseCase(repo, embedder, expander),
		Knowledge: NewKnowledgeUseCase(repo, embedder),
		Entity:    NewEntityUseCase(repo, embedder),
	}
}

// Repo exposes the wired repository so the composition root can manage
// its lifecycle.
func (uc *UseCases) Repo() interfaces.Repository {
	return uc.repo
}
