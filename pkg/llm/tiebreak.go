package llm

import (
	"context"
	"fmt"
)

// TiebreakClient adapts CompletionClient to pkg/resolver's Tiebreaker
// interface: it sends the prompt verbatim and parses a {choice, reason}
// object out of whatever text comes back.
type TiebreakClient struct {
	completion *CompletionClient
}

// NewTiebreakClient wraps a CompletionClient for entity-resolution
// tiebreaks.
func NewTiebreakClient(completion *CompletionClient) *TiebreakClient {
	return &TiebreakClient{completion: completion}
}

type tiebreakResponse struct {
	Choice int    `json:"choice"`
	Reason string `json:"reason"`
}

// Tiebreak satisfies resolver.Tiebreaker. A call failure or an
// unparseable response returns an error; the resolver's own fallback
// (create a new entity) applies from there, so this never needs to
// invent a choice.
func (t *TiebreakClient) Tiebreak(ctx context.Context, prompt string) (int, string, error) {
	raw, err := t.completion.Complete(ctx, prompt)
	if err != nil {
		return 0, "", fmt.Errorf("llm: tiebreak: %w", err)
	}

	var resp tiebreakResponse
	if err := ParseJSONObject(raw, &resp); err != nil {
		return 0, "", fmt.Errorf("llm: tiebreak: %w", err)
	}
	return resp.Choice, resp.Reason, nil
}
