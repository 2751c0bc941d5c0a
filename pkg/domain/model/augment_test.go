package model_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/everecall/pkg/domain/model"
)

func TestAugmentPrompt(t *testing.T) {
	const basePrompt = "You are a helpful assistant."

	t.Run("empty results return base prompt unchanged", func(t *testing.T) {
		gt.Value(t, model.AugmentPrompt(basePrompt, nil)).Equal(basePrompt)
		gt.Value(t, model.AugmentPrompt(basePrompt, []*model.SearchResult{})).Equal(basePrompt)
	})

	t.Run("context block contains all contents", func(t *testing.T) {
		results := []*model.SearchResult{
			result("k1", 0.9),
			result("k2", 0.8),
		}

		augmented := model.AugmentPrompt(basePrompt, results)

		gt.Bool(t, strings.HasPrefix(augmented, basePrompt)).True()
		gt.String(t, augmented).Contains("content-k1")
		gt.String(t, augmented).Contains("content-k2")
		gt.String(t, augmented).Contains("Retrieved from Memory")
		gt.String(t, augmented).Contains("End of Retrieved Information")
	})

	t.Run("block excludes record ids", func(t *testing.T) {
		results := []*model.SearchResult{
			{
				Knowledge: &model.Knowledge{
					ID:        model.KnowledgeID("f6a7a4e0-0000-4000-8000-000000000001"),
					Content:   "E.V.E. stands for Extended Virtual Entity",
					Embedding: []float32{0.25, -0.75},
				},
				Similarity: 0.95,
			},
		}

		augmented := model.AugmentPrompt(basePrompt, results)

		gt.String(t, augmented).Contains("E.V.E. stands for Extended Virtual Entity")
		gt.Bool(t, strings.Contains(augmented, "f6a7a4e0")).False()
		gt.Bool(t, strings.Contains(augmented, "0.25")).False()
	})
}
