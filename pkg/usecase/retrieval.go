package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTopK is the default number of results per query variant
	DefaultTopK = 5

	// DefaultExpansionCount is the default number of query paraphrases
	DefaultExpansionCount = 2
)

// RetrievalOptions controls one retrieval pipeline run
type RetrievalOptions struct {
	TopK           int
	ExpansionCount int
	EntityID       model.EntityID // Optional search scope
}

func (o *RetrievalOptions) fillDefaults() {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.ExpansionCount <= 0 {
		o.ExpansionCount = DefaultExpansionCount
	}
}

// RetrievalUseCase runs the semantic retrieval pipeline: expand the query,
// fan out embedding + similarity search per variant, merge, rank, and fold
// the results into the caller's prompt.
type RetrievalUseCase struct {
	repo     interfaces.Repository
	embedder interfaces.EmbeddingClient
	expander interfaces.QueryExpander
}

// NewRetrievalUseCase creates a new RetrievalUseCase
func NewRetrievalUseCase(repo interfaces.Repository, embedder interfaces.EmbeddingClient, expander interfaces.QueryExpander) *RetrievalUseCase {
	return &RetrievalUseCase{
		repo:     repo,
		embedder: embedder,
		expander: expander,
	}
}

// variantOutcome holds one variant's search results at its variant index,
// so the merge can run in variant order rather than completion order.
type variantOutcome struct {
	results []*model.SearchResult
	err     error
}

// AugmentSystemPrompt retrieves knowledge relevant to userQuery and appends
// it to basePrompt. Per-variant failures degrade the result instead of
// failing the run: the returned Augmentation always carries either an
// augmented prompt or the unchanged base prompt, plus a diagnostic when
// anything went wrong along the way. An error is returned only for invalid
// input.
func (uc *RetrievalUseCase) AugmentSystemPrompt(ctx context.Context, basePrompt, userQuery string, opts RetrievalOptions) (*model.Augmentation, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, goerr.New("user query is required")
	}
	opts.fillDefaults()

	logger := logging.From(ctx)

	variants := []model.QueryVariant{
		{Text: userQuery, Origin: model.OriginOriginal},
	}

	var expansionDiag string
	if uc.expander != nil {
		expansions, err := uc.expander.Expand(ctx, userQuery, opts.ExpansionCount)
		if err != nil {
			// Expansion is best-effort: degrade to the original query
			expansionDiag = err.Error()
			logger.Warn("query expansion failed, continuing with original query only",
				"query", userQuery,
				"error", err.Error(),
			)
		} else {
			variants = append(variants, expansions...)
		}
	}

	outcomes := make([]variantOutcome, len(variants))

	var g errgroup.Group
	for i, v := range variants {
		g.Go(func() error {
			outcomes[i] = uc.searchVariant(ctx, v, opts)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error; failures land in outcomes

	// Merge in variant order: the original query's results take precedence
	// and the first-seen similarity of a record is retained.
	seen := make(map[model.KnowledgeID]struct{})
	merged := make([]*model.SearchResult, 0, opts.TopK*len(variants))
	var lastErr error

	for i, outcome := range outcomes {
		if outcome.err != nil {
			lastErr = outcome.err
			logger.Warn("variant search failed",
				"variant", variants[i].Text,
				"origin", variants[i].Origin,
				"error", outcome.err.Error(),
			)
			continue
		}
		for _, r := range outcome.results {
			if _, ok := seen[r.Knowledge.ID]; ok {
				continue
			}
			seen[r.Knowledge.ID] = struct{}{}
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 {
		var parts []string
		if expansionDiag != "" {
			parts = append(parts, expansionDiag)
		}
		if lastErr != nil {
			parts = append(parts, fmt.Sprintf("Semantic search failed for all queries. Last error: %s", lastErr.Error()))
		}
		diag := strings.Join(parts, ". ")
		if diag == "" {
			logger.Info("no relevant knowledge found", "query", userQuery)
		}

		return &model.Augmentation{
			Prompt:     basePrompt,
			Results:    []*model.SearchResult{},
			Diagnostic: diag,
		}, nil
	}

	ranked := model.RankResults(merged)

	return &model.Augmentation{
		Prompt:     model.AugmentPrompt(basePrompt, ranked),
		Results:    ranked,
		Diagnostic: expansionDiag,
	}, nil
}

func (uc *RetrievalUseCase) searchVariant(ctx context.Context, v model.QueryVariant, opts RetrievalOptions) variantOutcome {
	// A variant that has not started when the deadline hits is
	// failed-and-skipped, never a reason to abort the whole run.
	if err := ctx.Err(); err != nil {
		return variantOutcome{err: goerr.Wrap(err, "variant skipped", goerr.V("query", v.Text))}
	}

	vector, err := uc.embedder.Generate(ctx, v.Text)
	if err != nil {
		return variantOutcome{err: goerr.Wrap(err, "failed to embed query variant", goerr.V("query", v.Text))}
	}

	results, err := uc.repo.Knowledge().FindSimilar(ctx, vector, opts.TopK, opts.EntityID)
	if err != nil {
		return variantOutcome{err: err}
	}

	return variantOutcome{results: results}
}
