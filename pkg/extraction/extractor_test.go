package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildingjoshbetter/kestrel/pkg/llm"
)

func TestExtractParsesFactsAndRelationsFromCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "{\"facts\":[{\"subject\":\"Alice\",\"predicate\":\"company\",\"object\":\"Acme\",\"confidence\":0.9,\"sourceSentence\":\"Alice works at Acme\"}],\"relations\":[{\"subject\":\"Alice\",\"object\":\"Bob\",\"edgeType\":\"works_with\",\"confidence\":0.8,\"sourceSentence\":\"Alice and Bob are on the same team\"}]}"}`))
	}))
	defer srv.Close()

	client := llm.New("")
	completion := llm.NewCompletionClient(client, srv.URL, "test-model")
	ext := New(completion)

	result, err := ext.Extract(context.Background(), "Alice works at Acme. Alice and Bob are on the same team.", nil)
	require.NoError(t, err)
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "Acme", result.Facts[0].Object)
	require.Len(t, result.Relations, 1)
	assert.Equal(t, "works_with", result.Relations[0].EdgeType)
}

func TestExtractWithoutCompletionClientReturnsEmptyResult(t *testing.T) {
	ext := New(nil)
	result, err := ext.Extract(context.Background(), "Alice works at Acme", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Facts)
	assert.Empty(t, result.Relations)
}

func TestExtractWithEmptyTextReturnsEmptyResultWithoutCallingEndpoint(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"text": "{}"}`))
	}))
	defer srv.Close()

	client := llm.New("")
	completion := llm.NewCompletionClient(client, srv.URL, "test-model")
	ext := New(completion)

	_, err := ext.Extract(context.Background(), "", nil)
	require.NoError(t, err)
	assert.False(t, called, "expected the endpoint not to be called for empty text")
}
