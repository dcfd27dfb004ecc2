package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildingjoshbetter/kestrel/pkg/llm"
)

// Extractor runs the extraction prompt through a completion client and
// parses the result.
type Extractor struct {
	completion *llm.CompletionClient
}

// New creates an Extractor. completion may be nil (no LLM endpoint
// configured); Extract then returns an empty Result rather than erroring,
// matching §6's "strictly optional, no operation requires it" contract for
// the LLM endpoint.
func New(completion *llm.CompletionClient) *Extractor {
	return &Extractor{completion: completion}
}

// Extract runs a single LLM call over text and returns the parsed facts and
// relations. knownEntities primes the prompt with existing canonical names.
func (e *Extractor) Extract(ctx context.Context, text string, knownEntities []string) (*Result, error) {
	if e.completion == nil || text == "" {
		return &Result{}, nil
	}

	raw, err := e.completion.Complete(ctx, systemPrompt+"\n\n"+buildPrompt(text, knownEntities))
	if err != nil {
		if errors.Is(err, llm.ErrNoEndpoint) {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("extraction: complete: %w", err)
	}

	var result Result
	if err := llm.ParseJSONObject(raw, &result); err != nil {
		return nil, fmt.Errorf("extraction: parse: %w", err)
	}
	return &result, nil
}
