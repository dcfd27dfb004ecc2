package llm

import (
	"context"
	"fmt"
)

// EmbeddingClient wraps Client for the embedding endpoint: a POST of
// {model, prompt} expecting JSON {embedding: [float, ...]}.
type EmbeddingClient struct {
	client     *Client
	endpoint   string
	model      string
	dimensions int
}

// NewEmbeddingClient builds an EmbeddingClient against the given
// endpoint and model. dimensions is used only to validate responses.
func NewEmbeddingClient(client *Client, endpoint, model string, dimensions int) *EmbeddingClient {
	return &EmbeddingClient{client: client, endpoint: endpoint, model: model, dimensions: dimensions}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests a vector for text. Failures are returned to the caller to
// log; Embed itself does not retry, and no worker step re-embeds later.
func (e *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	if err := e.client.post(ctx, e.endpoint, embeddingRequest{Model: e.model, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if e.dimensions > 0 && len(resp.Embedding) != e.dimensions {
		return nil, fmt.Errorf("llm: embedding dimension mismatch: got %d, want %d", len(resp.Embedding), e.dimensions)
	}
	return resp.Embedding, nil
}
