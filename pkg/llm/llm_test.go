package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbedPostsModelAndPromptAndParsesVector(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer server.Close()

	client := New("test-key")
	embedder := NewEmbeddingClient(client, server.URL, "nomic-embed-text", 3)

	vec, err := embedder.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3-dimensional vector, got %d", len(vec))
	}
	if gotBody["model"] != "nomic-embed-text" || gotBody["prompt"] != "hello world" {
		t.Errorf("expected model+prompt in request body, got %+v", gotBody)
	}
}

func TestEmbedRejectsDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2]}`))
	}))
	defer server.Close()

	embedder := NewEmbeddingClient(New(""), server.URL, "m", 768)
	if _, err := embedder.Embed(context.Background(), "x"); err == nil {
		t.Fatalf("expected a dimension mismatch error")
	}
}

func TestEmbedWithoutEndpointReturnsErrNoEndpoint(t *testing.T) {
	embedder := NewEmbeddingClient(New(""), "", "m", 0)
	if _, err := embedder.Embed(context.Background(), "x"); err != ErrNoEndpoint {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestEmbedSurfacesHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model is warming up"))
	}))
	defer server.Close()

	embedder := NewEmbeddingClient(New(""), server.URL, "m", 0)
	if _, err := embedder.Embed(context.Background(), "x"); err == nil {
		t.Fatalf("expected an error for a non-2xx response")
	}
}

func TestCompleteReturnsRawText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello back"}`))
	}))
	defer server.Close()

	completion := NewCompletionClient(New(""), server.URL, "some-model")
	text, err := completion.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "hello back" {
		t.Errorf("expected %q, got %q", "hello back", text)
	}
}

func TestTiebreakParsesChoiceAndReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"` + "```" + `json\n{\"choice\": 2, \"reason\": \"same company domain\"}\n` + "```" + `"}`))
	}))
	defer server.Close()

	tb := NewTiebreakClient(NewCompletionClient(New(""), server.URL, "m"))
	choice, reason, err := tb.Tiebreak(context.Background(), "pick one")
	if err != nil {
		t.Fatalf("Tiebreak failed: %v", err)
	}
	if choice != 2 {
		t.Errorf("expected choice 2, got %d", choice)
	}
	if reason != "same company domain" {
		t.Errorf("expected reason to be parsed, got %q", reason)
	}
}

func TestTiebreakWithoutEndpointPropagatesErrNoEndpoint(t *testing.T) {
	tb := NewTiebreakClient(NewCompletionClient(New(""), "", "m"))
	if _, _, err := tb.Tiebreak(context.Background(), "pick one"); err == nil {
		t.Fatalf("expected an error when no LLM endpoint is configured")
	}
}

func TestParseJSONObjectRepairsEmbeddedObjectInProse(t *testing.T) {
	raw := `Sure thing — here's my answer: {"choice": 1, "reason": "exact email match"} hope that helps!`
	var resp tiebreakResponse
	if err := ParseJSONObject(raw, &resp); err != nil {
		t.Fatalf("ParseJSONObject failed: %v", err)
	}
	if resp.Choice != 1 || resp.Reason != "exact email match" {
		t.Errorf("expected repaired object to parse, got %+v", resp)
	}
}

func TestParseJSONObjectEmptyResponseErrors(t *testing.T) {
	var resp tiebreakResponse
	if err := ParseJSONObject("   ", &resp); err == nil {
		t.Fatalf("expected an error for an empty response")
	}
}
