package model

import "strings"

// Augmentation is the outcome of a retrieval pipeline run.
// Prompt equals the caller's base prompt exactly when Results is empty.
// Diagnostic carries a non-fatal error summary (e.g. a failed query
// expansion) and may be set even when results were found.
type Augmentation struct {
	Prompt     string
	Results    []*SearchResult
	Diagnostic string
}

const (
	contextBlockHeader = "--- Relevant Information Retrieved from Memory ---"
	contextBlockFooter = "--- End of Retrieved Information ---"
)

// AugmentPrompt appends a context block listing the ranked results to the
// base prompt. The block carries explicit header/footer markers so the
// downstream model can attribute the retrieved content, and it contains
// only the human-readable content of each record: no ids, no vectors.
// An empty result set returns the base prompt unchanged.
func AugmentPrompt(basePrompt string, results []*SearchResult) string {
	if len(results) == 0 {
		return basePrompt
	}

	var sb strings.Builder
	sb.WriteString(basePrompt)
	sb.WriteString("\n\n")
	sb.WriteString(contextBlockHeader)
	sb.WriteString("\n")
	for _, r := range results {
		sb.WriteString("- ")
		sb.WriteString(r.Knowledge.Content)
		sb.WriteString("\n")
	}
	sb.WriteString(contextBlockFooter)

	return sb.String()
}
