// Package extraction turns free text — a message body, a thread — into
// candidate facts and entity relations via a single LLM completion. It
// composes with pkg/llm for the completion call and response parsing, and
// leaves resolving extracted subject/object names to entity ids, and
// deciding what to do with a low-confidence extraction, to the caller
// (pkg/worker's assertion-emission step).
package extraction

// ExtractedFact is a subject-predicate-object candidate fact about a known
// entity — "works at Acme", "birthday is March 3" — not yet tied to an
// entity id.
type ExtractedFact struct {
	Subject        string  `json:"subject"`
	Predicate      string  `json:"predicate"`
	Object         string  `json:"object"`
	Confidence     float64 `json:"confidence"`
	SourceSentence string  `json:"sourceSentence"`
}

// ExtractedRelation is a candidate graph edge between two entities —
// "reports to", "works with" — expressed as one of the edge types in
// internal/store's vocabulary (store.IsValidEdgeType validates it; the LLM
// is prompted with the same closed list but may still hallucinate one).
type ExtractedRelation struct {
	Subject        string  `json:"subject"`
	Object         string  `json:"object"`
	EdgeType       string  `json:"edgeType"`
	Confidence     float64 `json:"confidence"`
	SourceSentence string  `json:"sourceSentence"`
}

// Result is the unified output of a single extraction call.
type Result struct {
	Facts     []ExtractedFact     `json:"facts"`
	Relations []ExtractedRelation `json:"relations"`
}
