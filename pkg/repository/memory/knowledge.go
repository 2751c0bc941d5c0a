package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/model"
)

type knowledgeRepository struct {
	mu      sync.RWMutex
	entries map[model.KnowledgeID]*model.Knowledge
}

func newKnowledgeRepository() *knowledgeRepository {
	return &knowledgeRepository{
		entries: make(map[model.KnowledgeID]*model.Knowledge),
	}
}

func (r *knowledgeRepository) Create(ctx context.Context, knowledge *model.Knowledge) (*model.Knowledge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := knowledge.Clone()
	if created.ID == "" {
		created.ID = model.NewKnowledgeID()
	}
	created.CreatedAt = time.Now().UTC()

	r.entries[created.ID] = created
	return created.Clone(), nil
}

func (r *knowledgeRepository) Get(ctx context.Context, id model.KnowledgeID) (*model.Knowledge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
	}

	return k.Clone(), nil
}

func (r *knowledgeRepository) ListWithPagination(ctx context.Context, limit, offset int) ([]*model.Knowledge, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.Knowledge, 0, len(r.entries))
	for _, k := range r.entries {
		all = append(all, k.Clone())
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*model.Knowledge{}, total, nil
	}

	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (r *knowledgeRepository) Delete(ctx context.Context, id model.KnowledgeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "knowledge not found", goerr.V("id", id))
	}

	delete(r.entries, id)
	return nil
}

func (r *knowledgeRepository) FindSimilar(ctx context.Context, embedding []float32, limit int, entityID model.EntityID) ([]*model.SearchResult, error) {
	if limit <= 0 {
		return nil, goerr.New("limit must be positive", goerr.V("limit", limit))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]*model.SearchResult, 0, len(r.entries))
	for _, k := range r.entries {
		if len(k.Embedding) == 0 {
			continue
		}
		if entityID != "" && k.EntityID != entityID {
			continue
		}
		candidates = append(candidates, &model.SearchResult{
			Knowledge:  k.Clone(),
			Similarity: cosineSimilarity(embedding, k.Embedding),
		})
	}

	// Secondary keys keep the order deterministic across runs
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		if !candidates[i].Knowledge.CreatedAt.Equal(candidates[j].Knowledge.CreatedAt) {
			return candidates[i].Knowledge.CreatedAt.Before(candidates[j].Knowledge.CreatedAt)
		}
		return candidates[i].Knowledge.ID < candidates[j].Knowledge.ID
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	return candidates[:limit], nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
