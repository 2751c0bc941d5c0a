package model

import "sort"

// SearchResult is a Knowledge record annotated with a similarity score.
// The score convention is cosine similarity in [-1, 1] where higher means
// more relevant; adapters that receive a distance from their backend must
// convert it before returning results.
type SearchResult struct {
	Knowledge  *Knowledge
	Similarity float64
}

// RankResults sorts results by similarity descending. The sort is stable:
// ties keep their insertion order, which the retrieval pipeline defines as
// first-seen variant order. The input slice is not modified.
func RankResults(results []*SearchResult) []*SearchResult {
	ranked := make([]*SearchResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	return ranked
}
