package store

// Edge type vocabulary. Closed for the well-known relations so callers can
// rely on their meaning; open for extension via RegisterEdgeType so a
// future extractor can introduce a new relation without a schema change.
const (
	EdgeCommunicatesWith = "communicates_with"
	EdgeReportsTo        = "reports_to"
	EdgeManages          = "manages"
	EdgeFamily           = "family"
	EdgeSpouse           = "spouse"
	EdgeWorksWith        = "works_with"
	EdgeMemberOf         = "member_of"
	EdgeFriendOf         = "friend_of"
	EdgeKnows            = "knows"
	EdgeMentions         = "mentions"
)

var knownEdgeTypes = map[string]bool{
	EdgeCommunicatesWith: true,
	EdgeReportsTo:        true,
	EdgeManages:          true,
	EdgeFamily:           true,
	EdgeSpouse:           true,
	EdgeWorksWith:        true,
	EdgeMemberOf:         true,
	EdgeFriendOf:         true,
	EdgeKnows:            true,
	EdgeMentions:         true,
}

// RegisterEdgeType extends the vocabulary with a relation type not known
// ahead of time, e.g. one an LLM extractor discovers in free text.
func RegisterEdgeType(edgeType string) {
	knownEdgeTypes[edgeType] = true
}

// IsValidEdgeType reports whether edgeType is a recognized relation, either
// from the closed well-known set or a prior RegisterEdgeType call.
func IsValidEdgeType(edgeType string) bool {
	return knownEdgeTypes[edgeType]
}
