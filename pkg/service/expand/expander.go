package expand

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/everecall/pkg/domain/interfaces"
	"github.com/secmon-lab/everecall/pkg/domain/model"
)

// ErrExpansionFailed wraps LLM-side expansion failures. Callers must treat
// it as non-fatal and fall back to the original query.
var ErrExpansionFailed = goerr.New("failed to expand query")

const expandSystemPrompt = "You rephrase search queries. Respond with only the requested rephrasings, one per line, without numbering, bullets, or commentary."

// Expander generates alternate phrasings of a search query via an LLM
type Expander struct {
	llmClient gollem.LLMClient
}

var _ interfaces.QueryExpander = &Expander{}

// New creates a query expander with the provided LLM client
func New(llmClient gollem.LLMClient) (*Expander, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Expander{llmClient: llmClient}, nil
}

// Expand requests count paraphrases of query and returns them tagged as
// expansion variants. Lines equal to the original query (case-insensitive,
// trimmed) are dropped before the count bound applies; model output order
// is preserved.
func (x *Expander) Expand(ctx context.Context, query string, count int) ([]model.QueryVariant, error) {
	if count <= 0 {
		return nil, nil
	}

	session, err := x.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(expandSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrExpansionFailed, err.Error())
	}

	prompt := fmt.Sprintf("Generate %d alternative phrasings of the following search query:\n\n%s", count, query)

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(ErrExpansionFailed, err.Error())
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(ErrExpansionFailed, "empty response from LLM")
	}

	return parseVariants(resp.Texts[0], query, count), nil
}

func parseVariants(text, original string, count int) []model.QueryVariant {
	normalizedOriginal := strings.ToLower(strings.TrimSpace(original))

	variants := make([]model.QueryVariant, 0, count)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.ToLower(line) == normalizedOriginal {
			continue
		}

		variants = append(variants, model.QueryVariant{
			Text:   line,
			Origin: model.OriginExpansion,
		})
		if len(variants) == count {
			break
		}
	}

	return variants
}
