package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/everecall/pkg/domain/model"
)

func result(id string, similarity float64) *model.SearchResult {
	return &model.SearchResult{
		Knowledge:  &model.Knowledge{ID: model.KnowledgeID(id), Content: "content-" + id},
		Similarity: similarity,
	}
}

func TestRankResults(t *testing.T) {
	t.Run("sorts by similarity descending", func(t *testing.T) {
		ranked := model.RankResults([]*model.SearchResult{
			result("a", 0.2),
			result("b", 0.9),
			result("c", 0.5),
		})

		gt.Array(t, ranked).Length(3)
		gt.Value(t, ranked[0].Knowledge.ID).Equal("b")
		gt.Value(t, ranked[1].Knowledge.ID).Equal("c")
		gt.Value(t, ranked[2].Knowledge.ID).Equal("a")

		for i := 0; i < len(ranked)-1; i++ {
			gt.Bool(t, ranked[i].Similarity >= ranked[i+1].Similarity).True()
		}
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		ranked := model.RankResults([]*model.SearchResult{
			result("first", 0.7),
			result("second", 0.7),
			result("third", 0.7),
		})

		gt.Value(t, ranked[0].Knowledge.ID).Equal("first")
		gt.Value(t, ranked[1].Knowledge.ID).Equal("second")
		gt.Value(t, ranked[2].Knowledge.ID).Equal("third")
	})

	t.Run("does not modify input", func(t *testing.T) {
		input := []*model.SearchResult{
			result("a", 0.1),
			result("b", 0.9),
		}
		_ = model.RankResults(input)

		gt.Value(t, input[0].Knowledge.ID).Equal("a")
		gt.Value(t, input[1].Knowledge.ID).Equal("b")
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		gt.Array(t, model.RankResults(nil)).Length(0)
	})
}
