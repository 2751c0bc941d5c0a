package model

// VariantOrigin identifies how a query variant was produced
type VariantOrigin string

const (
	// OriginOriginal marks the caller-supplied query. Exactly one variant
	// per pipeline run carries this origin and it always occupies index 0.
	OriginOriginal VariantOrigin = "original"

	// OriginExpansion marks an LLM-generated paraphrase of the original
	OriginExpansion VariantOrigin = "expansion"
)

// QueryVariant is one phrasing of the user query submitted to search
type QueryVariant struct {
	Text   string
	Origin VariantOrigin
}
