package retrieval

import "fmt"

// searchMessagesFTS runs the BM25 full-text primitive over message bodies.
func (e *Engine) searchMessagesFTS(query string) ([]Result, error) {
	if query == "" {
		return nil, nil
	}
	messages, err := e.store.SearchMessagesFTS(query, perPrimitiveLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieval: messages fts: %w", err)
	}
	results := make([]Result, 0, len(messages))
	for _, m := range messages {
		highlight := m.Subject
		if highlight == "" {
			highlight = m.BodyText
		}
		results = append(results, Result{
			Type:      ResultMessage,
			ID:        m.ID,
			Highlight: highlight,
		})
	}
	return results, nil
}

// searchEntitiesAndAssertions runs the two LIKE-based FTS primitives over
// entity names/attributes and assertion predicate/object/entity-name text.
func (e *Engine) searchEntitiesAndAssertions(query string) (entities []Result, assertions []Result, err error) {
	if query == "" {
		return nil, nil, nil
	}

	ents, err := e.store.SearchEntitiesLike(query, perPrimitiveLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieval: entities fts: %w", err)
	}
	for _, ent := range ents {
		entities = append(entities, Result{
			Type:      ResultEntity,
			ID:        ent.ID,
			Highlight: ent.CanonicalName,
		})
	}

	asserts, err := e.store.SearchAssertionsLike(query, perPrimitiveLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieval: assertions fts: %w", err)
	}
	for _, a := range asserts {
		highlight := a.Predicate + " " + a.ObjectText
		assertions = append(assertions, Result{
			Type:      ResultAssertion,
			ID:        a.ID,
			Highlight: highlight,
		})
	}

	return entities, assertions, nil
}
