package embedding_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/service/embedding"
)

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	return nil, nil
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns provider embedding as float32", func(t *testing.T) {
		llm := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				gt.Value(t, dimension).Equal(model.EmbeddingDimension)
				gt.Array(t, input).Length(1)

				vec := make([]float64, dimension)
				vec[0] = 0.5
				return [][]float64{vec}, nil
			},
		}

		svc, err := embedding.New(llm)
		gt.NoError(t, err).Required()

		vector, err := svc.Generate(ctx, "What is E.V.E.?")
		gt.NoError(t, err).Required()

		gt.Array(t, vector).Length(model.EmbeddingDimension)
		gt.Value(t, vector[0]).Equal(float32(0.5))
	})

	t.Run("rejects empty text", func(t *testing.T) {
		svc, err := embedding.New(nil, embedding.WithFallback(true))
		gt.NoError(t, err).Required()

		_, err = svc.Generate(ctx, "   ")
		gt.Error(t, err)
	})

	t.Run("provider error surfaces without fallback", func(t *testing.T) {
		llm := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, context.DeadlineExceeded
			},
		}

		svc, err := embedding.New(llm)
		gt.NoError(t, err).Required()

		_, err = svc.Generate(ctx, "query")
		gt.Error(t, err)
	})
}

func TestFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("missing client without fallback is a configuration error", func(t *testing.T) {
		_, err := embedding.New(nil)
		gt.Error(t, err)
	})

	t.Run("fallback vector has the configured dimension", func(t *testing.T) {
		svc, err := embedding.New(nil, embedding.WithFallback(true))
		gt.NoError(t, err).Required()

		vector, err := svc.Generate(ctx, "anything")
		gt.NoError(t, err).Required()
		gt.Array(t, vector).Length(model.EmbeddingDimension)

		for _, v := range vector {
			gt.Bool(t, v >= -1 && v <= 1).True()
		}
	})

	t.Run("different inputs produce different vectors", func(t *testing.T) {
		svc, err := embedding.New(nil, embedding.WithFallback(true))
		gt.NoError(t, err).Required()

		a, err := svc.Generate(ctx, "first text")
		gt.NoError(t, err).Required()
		b, err := svc.Generate(ctx, "second text")
		gt.NoError(t, err).Required()

		same := true
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
		gt.Bool(t, same).False()
	})

	t.Run("provider failure degrades with fallback enabled", func(t *testing.T) {
		llm := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, context.DeadlineExceeded
			},
		}

		svc, err := embedding.New(llm, embedding.WithFallback(true), embedding.WithDimension(8))
		gt.NoError(t, err).Required()

		vector, err := svc.Generate(ctx, "query")
		gt.NoError(t, err).Required()
		gt.Array(t, vector).Length(8)
	})
}
