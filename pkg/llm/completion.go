package llm

import "context"

// CompletionClient wraps Client for the plain text-in/text-out endpoint
// used for entity tiebreak and other optional extractions. No operation
// requires it; an unconfigured endpoint just returns ErrNoEndpoint.
type CompletionClient struct {
	client   *Client
	endpoint string
	model    string
}

// NewCompletionClient builds a CompletionClient against the given
// endpoint and model.
func NewCompletionClient(client *Client, endpoint, model string) *CompletionClient {
	return &CompletionClient{client: client, endpoint: endpoint, model: model}
}

type completionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// Complete sends prompt and returns the raw text response. Callers that
// expect embedded JSON (tiebreak's {choice, reason}, extraction's
// facts/relations) parse the returned text themselves rather than assuming a
// clean json.Unmarshal will work — see ParseJSONObject.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	var resp completionResponse
	if err := c.client.post(ctx, c.endpoint, completionRequest{Model: c.model, Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}
