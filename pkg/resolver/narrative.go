package resolver

import "strings"

// Gender is used only to disambiguate pronoun references within the
// narrative tracker; it has no bearing on persisted entity data.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
	GenderNeutral
	GenderPlural
)

// entityMetadata is the narrative tracker's lightweight view of an entity,
// cached from whatever the pipeline last resolved it to.
type entityMetadata struct {
	ID      string
	Name    string
	Aliases []string
	Gender  Gender
}

// narrativeContext tracks recency of entity mentions within one ingestion
// batch so that pronouns and bare aliases can be resolved without going
// through the full persisted pipeline every time. Bounded history keeps
// this state small and short-lived; it is never persisted.
type narrativeContext struct {
	history    []string // most recent mention at front
	registry   map[string]entityMetadata
	maxHistory int
}

func newNarrativeContext() *narrativeContext {
	return &narrativeContext{
		registry:   make(map[string]entityMetadata),
		maxHistory: 10,
	}
}

func (nc *narrativeContext) register(e entityMetadata) {
	nc.registry[e.ID] = e
}

func (nc *narrativeContext) pushMention(entityID string) {
	for i, id := range nc.history {
		if id == entityID {
			nc.history = append(nc.history[:i], nc.history[i+1:]...)
			break
		}
	}
	nc.history = append([]string{entityID}, nc.history...)
	if len(nc.history) > nc.maxHistory {
		nc.history = nc.history[:nc.maxHistory]
	}
}

func (nc *narrativeContext) findMostRecent(gender Gender) string {
	for _, id := range nc.history {
		if meta, ok := nc.registry[id]; ok && gendersCompatible(meta.Gender, gender) {
			return id
		}
	}
	return ""
}

func gendersCompatible(entityGender, pronounGender Gender) bool {
	if entityGender == pronounGender {
		return true
	}
	if pronounGender == GenderUnknown || entityGender == GenderUnknown {
		return true
	}
	if pronounGender == GenderPlural {
		return entityGender == GenderPlural || entityGender == GenderNeutral
	}
	return false
}

// tryShortCircuit attempts a narrative-only resolution of name: a pronoun
// resolves to the most recently mentioned compatible entity, and a bare
// alias or exact name match resolves directly. Returns "" when the
// narrative tracker has no confident answer, in which case the caller must
// fall through to the full pipeline.
func (nc *narrativeContext) tryShortCircuit(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if gender, ok := pronounGender(lower); ok {
		return nc.findMostRecent(gender)
	}

	for _, meta := range nc.registry {
		if strings.ToLower(meta.Name) == lower {
			return meta.ID
		}
		for _, alias := range meta.Aliases {
			if strings.ToLower(alias) == lower {
				return meta.ID
			}
		}
	}
	return ""
}

func pronounGender(lower string) (Gender, bool) {
	switch lower {
	case "he", "him", "his":
		return GenderMale, true
	case "she", "her", "hers":
		return GenderFemale, true
	case "it", "its":
		return GenderNeutral, true
	case "they", "them", "their":
		return GenderPlural, true
	default:
		return GenderUnknown, false
	}
}
