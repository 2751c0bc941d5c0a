package embedding

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/utils/logging"
)

var (
	// ErrNoLLMClient is returned when no LLM client is configured and the
	// fallback mode is not enabled. This is a configuration error: it must
	// never be downgraded to a per-call failure in production.
	ErrNoLLMClient = goerr.New("no LLM client configured for embedding generation")

	// ErrGenerationFailed wraps provider-side embedding failures
	ErrGenerationFailed = goerr.New("failed to generate embedding")

	// ErrEmptyText is returned for empty or whitespace-only input.
	// Embedding whitespace is provider-defined noise, so the service
	// rejects it instead.
	ErrEmptyText = goerr.New("embedding input text is empty")
)

// Service generates text embeddings via a gollem LLM client.
// With fallback enabled (development mode only) a missing client or a
// provider failure degrades to a pseudorandom vector of the correct
// dimension instead of an error; each degradation logs a warning.
type Service struct {
	llmClient     gollem.LLMClient
	dimension     int
	allowFallback bool
}

var _ interfaces.EmbeddingClient = &Service{}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithFallback enables the development-mode pseudorandom fallback
func WithFallback(enabled bool) Option {
	return func(s *Service) {
		s.allowFallback = enabled
	}
}

// WithDimension overrides the embedding dimension (tests only; the
// deployment dimension is model.EmbeddingDimension)
func WithDimension(dim int) Option {
	return func(s *Service) {
		s.dimension = dim
	}
}

// New creates an embedding service. A nil llmClient is rejected unless
// WithFallback(true) is given, so a missing credential fails at startup
// rather than silently producing junk vectors.
func New(llmClient gollem.LLMClient, opts ...Option) (*Service, error) {
	s := &Service{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.llmClient == nil && !s.allowFallback {
		return nil, goerr.Wrap(ErrNoLLMClient, "configure an LLM provider or enable the development fallback")
	}

	return s, nil
}

// Generate converts text to a fixed-dimension embedding vector
func (s *Service) Generate(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrEmptyText, "refusing to embed whitespace-only input")
	}

	if s.llmClient == nil {
		logging.From(ctx).Warn("no LLM client, using pseudorandom embedding fallback",
			"dimension", s.dimension,
		)
		return s.randomVector(), nil
	}

	embeddings, err := s.llmClient.GenerateEmbedding(ctx, s.dimension, []string{text})
	if err != nil {
		if s.allowFallback {
			logging.From(ctx).Warn("embedding provider failed, using pseudorandom fallback",
				"error", err.Error(),
			)
			return s.randomVector(), nil
		}
		return nil, goerr.Wrap(ErrGenerationFailed, err.Error())
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrGenerationFailed, "provider returned no embedding")
	}

	vector := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		vector[i] = float32(v)
	}

	return vector, nil
}

// randomVector returns a vector with components drawn uniformly from
// [-1, 1]. Distinct calls yield distinct vectors so that similarity search
// stays non-degenerate in development.
func (s *Service) randomVector() []float32 {
	vector := make([]float32, s.dimension)
	for i := range vector {
		vector[i] = float32(rand.Float64()*2 - 1)
	}
	return vector
}
